package colorspace

// Names of the built-in reference and display colour spaces.
const (
	ACES2065 = "ACES2065-1"
	ACEScg   = "ACEScg"
	BT2020   = "ITU-R BT.2020"
	BT709    = "ITU-R BT.709"
	SRGB     = "sRGB"
	DCIP3    = "DCI-P3"
	P3D65    = "P3-D65"
)

// Names of the built-in camera-native colour spaces.
const (
	ARRIWideGamut3      = "ARRI Wide Gamut 3"
	ARRIWideGamut4      = "ARRI Wide Gamut 4"
	REDWideGamut        = "REDWideGamutRGB"
	SGamut3             = "S-Gamut3"
	SGamut3Cine         = "S-Gamut3.Cine"
	BlackmagicWideGamut = "Blackmagic Wide Gamut"
	CanonCinemaGamut    = "Cinema Gamut"
	VGamut              = "V-Gamut"
	DJIDGamut           = "DJI D-Gamut"
)

// Common white points in CIE xy.
var (
	whiteD65  = Chromaticity{X: 0.3127, Y: 0.3290}
	whiteACES = Chromaticity{X: 0.32168, Y: 0.33767} // D60-like
	whiteDCI  = Chromaticity{X: 0.314, Y: 0.351}
	whiteRED  = Chromaticity{X: 0.321683187, Y: 0.329003537}
	whiteBMD  = Chromaticity{X: 0.3127170, Y: 0.3290312}
)

type spaceDef struct {
	name             string
	red, green, blue Chromaticity
	white            Chromaticity
}

var standardSpaces = []spaceDef{
	{ACES2065,
		Chromaticity{0.73470, 0.26530}, Chromaticity{0.00000, 1.00000}, Chromaticity{0.00010, -0.07700},
		whiteACES},
	{ACEScg,
		Chromaticity{0.713, 0.293}, Chromaticity{0.165, 0.830}, Chromaticity{0.128, 0.044},
		whiteACES},
	{BT2020,
		Chromaticity{0.708, 0.292}, Chromaticity{0.170, 0.797}, Chromaticity{0.131, 0.046},
		whiteD65},
	{BT709,
		Chromaticity{0.640, 0.330}, Chromaticity{0.300, 0.600}, Chromaticity{0.150, 0.060},
		whiteD65},
	{SRGB,
		Chromaticity{0.640, 0.330}, Chromaticity{0.300, 0.600}, Chromaticity{0.150, 0.060},
		whiteD65},
	{DCIP3,
		Chromaticity{0.680, 0.320}, Chromaticity{0.265, 0.690}, Chromaticity{0.150, 0.060},
		whiteDCI},
	{P3D65,
		Chromaticity{0.680, 0.320}, Chromaticity{0.265, 0.690}, Chromaticity{0.150, 0.060},
		whiteD65},

	{ARRIWideGamut3,
		Chromaticity{0.6840, 0.3130}, Chromaticity{0.2210, 0.8480}, Chromaticity{0.0861, -0.1020},
		whiteD65},
	{ARRIWideGamut4,
		Chromaticity{0.7347, 0.2653}, Chromaticity{0.1424, 0.8576}, Chromaticity{0.0991, -0.0308},
		whiteD65},
	{REDWideGamut,
		Chromaticity{0.780308, 0.304253}, Chromaticity{0.121595, 1.493994}, Chromaticity{0.095612, -0.084589},
		whiteRED},
	{SGamut3,
		Chromaticity{0.730, 0.280}, Chromaticity{0.140, 0.855}, Chromaticity{0.100, -0.050},
		whiteD65},
	{SGamut3Cine,
		Chromaticity{0.766, 0.275}, Chromaticity{0.225, 0.800}, Chromaticity{0.089, -0.087},
		whiteD65},
	{BlackmagicWideGamut,
		Chromaticity{0.7177215, 0.3171181}, Chromaticity{0.2280410, 0.8615690}, Chromaticity{0.1005841, -0.0820452},
		whiteBMD},
	{CanonCinemaGamut,
		Chromaticity{0.740, 0.270}, Chromaticity{0.170, 1.140}, Chromaticity{0.080, -0.100},
		whiteD65},
	{VGamut,
		Chromaticity{0.730, 0.280}, Chromaticity{0.165, 0.840}, Chromaticity{0.100, -0.030},
		whiteD65},
	{DJIDGamut,
		Chromaticity{0.71, 0.31}, Chromaticity{0.21, 0.88}, Chromaticity{0.09, -0.08},
		whiteD65},
}
