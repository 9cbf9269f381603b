package registry

// Logging configurations supported for the LI-6800. Each entry lists the
// catalog variables that appear in that configuration's schema; the required
// set is the subset a log must declare in its layout to be accepted.
//
// The LI-6400 produces a different header and layout; until sample files are
// available no 6400 config is registered, so lookups for it fail the same
// InvalidDeviceConfig way as unknown devices.

const (
	Device6800 = "6800"
	Device6400 = "6400"

	ConfigStandard    = "standard"
	ConfigFluorometer = "fluorometer"
	ConfigAquatic     = "aquatic"
	ConfigSoil        = "soil"
)

var sysVariables = []string{
	"obs", "time", "elapsed", "date", "hhmmss", "averaging",
}

var gasExVariables = []string{
	"A", "E", "Ca", "Ci", "Pci", "Pca",
	"gsw", "gbw", "gtw", "gtc",
	"TleafCnd", "TleafEB", "SVPleaf",
	"RHcham", "VPcham", "SVPcham", "VPDleaf",
	"Tair", "Tleaf", "Flow", "Pa", "DeltaPcham",
	"Qamb_in", "Qamb_out", "Fan_speed", "S",
}

var flrVariables = []string{
	"F", "Fs", "Fm", "Fo", "Fm'", "Fo'",
	"Fv/Fm", "Fv'/Fm'", "PhiPS2", "PhiCO2", "ETR",
	"NPQ", "qP", "qN", "qP_Fo", "qN_Fo",
	"A_dark", "Q_modavg", "f_red", "f_blue",
}

var aquaticVariables = []string{
	"Qabs", "Qin", "Qout", "A", "E", "Pa", "Flow", "Tair",
}

var soilVariables = []string{
	"A", "Tsoil", "VWC", "Pa", "Flow", "Tair",
}

// requiredSet builds the required-flag lookup for register.
func requiredSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func init() {
	register(Device6800, ConfigStandard,
		concat(sysVariables, gasExVariables),
		requiredSet("obs", "A", "E", "Ca", "Ci", "gsw", "gbw", "Tleaf", "Tair", "Flow", "Pa"))

	register(Device6800, ConfigFluorometer,
		concat(sysVariables, gasExVariables, flrVariables),
		requiredSet("obs", "A", "E", "Ca", "Ci", "gsw", "gbw", "Tleaf", "Tair", "Flow", "Pa",
			"F", "Fm'", "Fo'", "PhiPS2", "ETR", "qP", "NPQ"))

	register(Device6800, ConfigAquatic,
		concat(sysVariables, aquaticVariables),
		requiredSet("obs", "Qabs", "Qin", "Qout", "A", "Pa"))

	register(Device6800, ConfigSoil,
		concat(sysVariables, soilVariables),
		requiredSet("obs", "A", "Tsoil", "VWC", "Pa", "Flow"))
}
