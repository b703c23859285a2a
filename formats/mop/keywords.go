package mop

// keywordStems are the MOPAC control keywords, reduced to the text before
// any "=" or "(" argument.
var keywordStems = map[string]struct{}{}

func init() {
	for _, k := range []string{
		"0SCF", "1ELECTRON", "1SCF", "ADD-H", "A0", "AIDER", "AIGIN", "AIGOUT",
		"ALLBONDS", "ALLVEC", "ALT_A", "ALT_R", "ANGSTROMS", "AUTOSYM", "AUX", "AM1",
		"BAR", "BCC", "BIGCYCLES", "BIRADICAL", "BFGS", "BONDS", "CAMP", "CARTAB",
		"C.I.", "CHAINS", "CHECK", "CHARGE", "CHARGES", "CHARST", "CIS", "CISD",
		"CISDT", "COMPARE", "COMPFG", "COSCCH", "COSWRT", "CUTOFP", "CUTOFF", "CYCLES",
		"CVB", "DAMP", "DATA", "DCART", "DDMAX", "DDMIN", "DEBUG", "DENOUT",
		"DENOUTF", "DENSITY", "DERI1", "DERI2", "DERITR", "DERIV", "DERNVO", "DFORCE",
		"DFP", "DISEX", "DISP", "DMAX", "DOUBLET", "DRC", "DUMP", "ECHO",
		"EF", "EIGEN", "EIGS", "ENPART", "EPS", "ESP", "ESPRST", "ESR",
		"EXCITED", "EXTERNAL", "FIELD", "FILL", "FLEPO", "FMAT", "FOCK", "FREQCY",
		"FORCE", "FORCETS", "GEO-OK", "GEO_DAT", "GEO_REF", "GNORM", "GRADIENTS", "GRAPH",
		"GRAPHF", "HCORE", "HESSIAN", "HESS", "H-PRIORITY", "HTML", "HYPERFINE", "INT",
		"INVERT", "IRC", "ISOTOPE", "ITER", "ITRY", "IUPD", "KINETIC", "KING",
		"LARGE", "LBFGS", "LET", "LEWIS", "LINMIN", "LOCALIZE", "LOCATE-TS", "LOG",
		"MECI", "MERS", "METAL", "MICROS", "MINI", "MINMEP", "MMOK", "MNDO",
		"MNDOD", "MODE", "MOL_QMMM", "MOLDAT", "MOLSYM", "MOPAC", "MOZYME", "MS",
		"MULLIK", "N**2", "NLLSQ", "NOANCI", "NOCOMMENTS", "NOGPU", "NOLOG", "NOMM",
		"NONET", "NONR", "NOOPT", "NOOPT-X", "NOREOR", "NORESEQ", "NOSWAP", "NOSYM",
		"NOTER", "NOTHIEL", "NOTXT", "NOXYZ", "NSPA", "NSURF", "OCTET", "OLDCAV",
		"OLDENS", "OLDFPC", "OLDGEO", "OMIN", "OPEN", "OPT", "OPT-X", "OUTPUT",
		"P", "PDB", "PDBOUT", "PECI", "PI", "PKA", "PL", "PM3",
		"PM6", "PM6-D3", "PM6-DH+", "PM6-DH2", "PM6-DH2X", "PM6-D3H4", "PM6-D3H4X", "PMEP",
		"PM7", "PM7-TS", "PMEPR", "POINT", "POINT1", "POINT2", "POLAR", "POTWRT",
		"POWSQ", "PRECISE", "PRESSURE", "PRNT", "PRTCHAR", "PRTINT", "PRTMEP", "PRTXYZ",
		"PULAY", "QMMM", "QPMEP", "QUARTET", "QUINTET", "RAPID", "RECALC", "RE-LOCAL",
		"RELSCF", "REORTHOG", "RESEQ", "RESIDUES", "RESTART", "RHF", "RM1", "RMAX",
		"RMIN", "ROOT", "RSCAL", "RSOLV", "SADDLE", "SCALE", "SCFCRT", "SCINCR",
		"SEPTET", "SETPI", "SETUP", "SEXTET", "SHIFT", "SHUT", "SIGMA", "SINGLET",
		"SITE", "SLOG", "SLOPE", "SMOOTH", "SNAP", "SPARKLE", "SPIN", "START_RES",
		"STATIC", "STEP", "STEP1", "STEP2", "STO3G", "SUPER", "SYBYL", "SYMAVG",
		"SYMOIR", "SYMTRZ", "SYMMETRY", "T", "THERMO", "THREADS", "TIMES", "T-PRIORITY",
		"TRANS", "TRIPLET", "TS", "UHF", "VDW", "VDWM", "VECTORS", "VELOCITY",
		"WILLIAMS", "X-PRIORITY", "XENO", "XYZ", "Z",
	} {
		keywordStems[k] = struct{}{}
	}
}

// multiplicities maps the spin-state keywords to 2S+1.
var multiplicities = map[string]int{
	"SINGLET": 1, "DOUBLET": 2, "TRIPLET": 3, "QUARTET": 4,
	"QUINTET": 5, "SEXTET": 6, "SEPTET": 7, "OCTET": 8,
}
