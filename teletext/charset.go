/*
NAME
  charset.go

DESCRIPTION
  G0 and G2 Teletext character set tables, ported from the UCS-2 tables
  in telxcc.c (ETS 300 706 chapter 15). Table contents and structure are
  kept identical to the original; only the representation (Go arrays of
  rune instead of C arrays of uint16_t) has changed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package teletext

// G0 charset identifiers, indexing the g0 table below.
const (
	g0Latin = iota
	g0Cyrillic1
	g0Cyrillic2
	g0Cyrillic3
	g0Greek
)

// g0 holds the five supported G0 primary character sets, each 96
// code points wide (positions 0x20-0x7f).
var g0 = [5][96]rune{
	{ // Latin G0 Primary Set.
		0x0020, 0x0021, 0x0022, 0x00a3, 0x0024, 0x0025, 0x0026, 0x0027, 0x0028, 0x0029, 0x002a, 0x002b, 0x002c, 0x002d, 0x002e, 0x002f,
		0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, 0x0038, 0x0039, 0x003a, 0x003b, 0x003c, 0x003d, 0x003e, 0x003f,
		0x0040, 0x0041, 0x0042, 0x0043, 0x0044, 0x0045, 0x0046, 0x0047, 0x0048, 0x0049, 0x004a, 0x004b, 0x004c, 0x004d, 0x004e, 0x004f,
		0x0050, 0x0051, 0x0052, 0x0053, 0x0054, 0x0055, 0x0056, 0x0057, 0x0058, 0x0059, 0x005a, 0x00ab, 0x00bd, 0x00bb, 0x005e, 0x0023,
		0x002d, 0x0061, 0x0062, 0x0063, 0x0064, 0x0065, 0x0066, 0x0067, 0x0068, 0x0069, 0x006a, 0x006b, 0x006c, 0x006d, 0x006e, 0x006f,
		0x0070, 0x0071, 0x0072, 0x0073, 0x0074, 0x0075, 0x0076, 0x0077, 0x0078, 0x0079, 0x007a, 0x00bc, 0x00a6, 0x00be, 0x00f7, 0x007f,
	},
	{ // Cyrillic G0 Primary Set, Option 1: Serbian/Croatian.
		0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x044b, 0x0027, 0x0028, 0x0029, 0x002a, 0x002b, 0x002c, 0x002d, 0x002e, 0x002f,
		0x0030, 0x0031, 0x3200, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, 0x0038, 0x0039, 0x003a, 0x003b, 0x003c, 0x003d, 0x003e, 0x003f,
		0x0427, 0x0410, 0x0411, 0x0426, 0x0414, 0x0415, 0x0424, 0x0413, 0x0425, 0x0418, 0x0408, 0x041a, 0x041b, 0x041c, 0x041d, 0x041e,
		0x041f, 0x040c, 0x0420, 0x0421, 0x0422, 0x0423, 0x0412, 0x0403, 0x0409, 0x040a, 0x0417, 0x040b, 0x0416, 0x0402, 0x0428, 0x040f,
		0x0447, 0x0430, 0x0431, 0x0446, 0x0434, 0x0435, 0x0444, 0x0433, 0x0445, 0x0438, 0x0428, 0x043a, 0x043b, 0x043c, 0x043d, 0x043e,
		0x043f, 0x042c, 0x0440, 0x0441, 0x0442, 0x0443, 0x0432, 0x0423, 0x0429, 0x042a, 0x0437, 0x042b, 0x0436, 0x0422, 0x0448, 0x042f,
	},
	{ // Cyrillic G0 Primary Set, Option 2: Russian/Bulgarian.
		0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x044b, 0x0027, 0x0028, 0x0029, 0x002a, 0x002b, 0x002c, 0x002d, 0x002e, 0x002f,
		0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, 0x0038, 0x0039, 0x003a, 0x003b, 0x003c, 0x003d, 0x003e, 0x003f,
		0x042e, 0x0410, 0x0411, 0x0426, 0x0414, 0x0415, 0x0424, 0x0413, 0x0425, 0x0418, 0x0419, 0x041a, 0x041b, 0x041c, 0x041d, 0x041e,
		0x041f, 0x042f, 0x0420, 0x0421, 0x0422, 0x0423, 0x0416, 0x0412, 0x042c, 0x042a, 0x0417, 0x0428, 0x042d, 0x0429, 0x0427, 0x042b,
		0x044e, 0x0430, 0x0431, 0x0446, 0x0434, 0x0435, 0x0444, 0x0433, 0x0445, 0x0438, 0x0439, 0x043a, 0x043b, 0x043c, 0x043d, 0x043e,
		0x043f, 0x044f, 0x0440, 0x0441, 0x0442, 0x0443, 0x0436, 0x0432, 0x044c, 0x044a, 0x0437, 0x0448, 0x044d, 0x0449, 0x0447, 0x044b,
	},
	{ // Cyrillic G0 Primary Set, Option 3: Ukrainian.
		0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x00ef, 0x0027, 0x0028, 0x0029, 0x002a, 0x002b, 0x002c, 0x002d, 0x002e, 0x002f,
		0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, 0x0038, 0x0039, 0x003a, 0x003b, 0x003c, 0x003d, 0x003e, 0x003f,
		0x042e, 0x0410, 0x0411, 0x0426, 0x0414, 0x0415, 0x0424, 0x0413, 0x0425, 0x0418, 0x0419, 0x041a, 0x041b, 0x041c, 0x041d, 0x041e,
		0x041f, 0x042f, 0x0420, 0x0421, 0x0422, 0x0423, 0x0416, 0x0412, 0x042c, 0x0049, 0x0417, 0x0428, 0x042d, 0x0429, 0x0427, 0x00cf,
		0x044e, 0x0430, 0x0431, 0x0446, 0x0434, 0x0435, 0x0444, 0x0433, 0x0445, 0x0438, 0x0439, 0x043a, 0x043b, 0x043c, 0x043d, 0x043e,
		0x043f, 0x044f, 0x0440, 0x0441, 0x0442, 0x0443, 0x0436, 0x0432, 0x044c, 0x0069, 0x0437, 0x0448, 0x044d, 0x0449, 0x0447, 0x00ff,
	},
	{ // Greek G0 Primary Set.
		0x0020, 0x0021, 0x0022, 0x0023, 0x0024, 0x0025, 0x0026, 0x0027, 0x0028, 0x0029, 0x002a, 0x002b, 0x002c, 0x002d, 0x002e, 0x002f,
		0x0030, 0x0031, 0x0032, 0x0033, 0x0034, 0x0035, 0x0036, 0x0037, 0x0038, 0x0039, 0x003a, 0x003b, 0x003c, 0x003d, 0x003e, 0x003f,
		0x0390, 0x0391, 0x0392, 0x0393, 0x0394, 0x0395, 0x0396, 0x0397, 0x0398, 0x0399, 0x039a, 0x039b, 0x039c, 0x039d, 0x039e, 0x039f,
		0x03a0, 0x03a1, 0x03a2, 0x03a3, 0x03a4, 0x03a5, 0x03a6, 0x03a7, 0x03a8, 0x03a9, 0x03aa, 0x03ab, 0x03ac, 0x03ad, 0x03ae, 0x03af,
		0x03b0, 0x03b1, 0x03b2, 0x03b3, 0x03b4, 0x03b5, 0x03b6, 0x03b7, 0x03b8, 0x03b9, 0x03ba, 0x03bb, 0x03bc, 0x03bd, 0x03be, 0x03bf,
		0x03c0, 0x03c1, 0x03c2, 0x03c3, 0x03c4, 0x03c5, 0x03c6, 0x03c7, 0x03c8, 0x03c9, 0x03ca, 0x03cb, 0x03cc, 0x03cd, 0x03ce, 0x03cf,
	},
}

// g0LatinNationalPositions are the indices within g0[g0Latin] that a
// national subset substitutes.
var g0LatinNationalPositions = [13]int{
	0x03, 0x04, 0x20, 0x3b, 0x3c, 0x3d, 0x3e, 0x3f, 0x40, 0x5b, 0x5c, 0x5d, 0x5e,
}

// g0LatinNationalSubset is one language's 13-character Latin G0 override.
type g0LatinNationalSubset struct {
	language   string
	characters [13]rune
}

var g0LatinNationalSubsets = [13]g0LatinNationalSubset{
	{"English", [13]rune{0x00a3, 0x0024, 0x0040, 0x00ab, 0x00bd, 0x00bb, 0x005e, 0x0023, 0x002d, 0x00bc, 0x00a6, 0x00be, 0x00f7}},
	{"French", [13]rune{0x00e9, 0x00ef, 0x00e0, 0x00eb, 0x00ea, 0x00f9, 0x00ee, 0x0023, 0x00e8, 0x00e2, 0x00f4, 0x00fb, 0x00e7}},
	{"Swedish, Finnish, Hungarian", [13]rune{0x0023, 0x00a4, 0x00c9, 0x00c4, 0x00d6, 0x00c5, 0x00dc, 0x005f, 0x00e9, 0x00e4, 0x00f6, 0x00e5, 0x00fc}},
	{"Czech, Slovak", [13]rune{0x0023, 0x016f, 0x010d, 0x0165, 0x017e, 0x00fd, 0x00ed, 0x0159, 0x00e9, 0x00e1, 0x011b, 0x00fa, 0x0161}},
	{"German", [13]rune{0x0023, 0x0024, 0x00a7, 0x00c4, 0x00d6, 0x00dc, 0x005e, 0x005f, 0x00b0, 0x00e4, 0x00f6, 0x00fc, 0x00df}},
	{"Portuguese, Spanish", [13]rune{0x00e7, 0x0024, 0x00a1, 0x00e1, 0x00e9, 0x00ed, 0x00f3, 0x00fa, 0x00bf, 0x00fc, 0x00f1, 0x00e8, 0x00e0}},
	{"Italian", [13]rune{0x00a3, 0x0024, 0x00e9, 0x00b0, 0x00e7, 0x00bb, 0x005e, 0x0023, 0x00f9, 0x00e0, 0x00f2, 0x00e8, 0x00ec}},
	{"Rumanian", [13]rune{0x0023, 0x00a4, 0x0162, 0x00c2, 0x015e, 0x0102, 0x00ce, 0x0131, 0x0163, 0x00e2, 0x015f, 0x0103, 0x00ee}},
	{"Polish", [13]rune{0x0023, 0x0144, 0x0105, 0x017b, 0x015a, 0x0141, 0x0107, 0x00f3, 0x0119, 0x017c, 0x015b, 0x0142, 0x017a}},
	{"Turkish", [13]rune{0x0054, 0x011f, 0x0130, 0x015e, 0x00d6, 0x00c7, 0x00dc, 0x011e, 0x0131, 0x015f, 0x00f6, 0x00e7, 0x00fc}},
	{"Serbian, Croatian, Slovenian", [13]rune{0x0023, 0x00cb, 0x010c, 0x0106, 0x017d, 0x0110, 0x0160, 0x00eb, 0x010d, 0x0107, 0x017e, 0x0111, 0x0161}},
	{"Estonian", [13]rune{0x0023, 0x00f5, 0x0160, 0x00c4, 0x00d6, 0x017e, 0x00dc, 0x00d5, 0x0161, 0x00e4, 0x00f6, 0x017e, 0x00fc}},
	{"Lettish, Lithuanian", [13]rune{0x0023, 0x0024, 0x0160, 0x0117, 0x0119, 0x017d, 0x010d, 0x016b, 0x0161, 0x0105, 0x0173, 0x017e, 0x012f}},
}

// g0LatinNationalMap maps a G0 designation code (from X/28/M29) to an
// index into g0LatinNationalSubsets, or 0xff if unimplemented.
var g0LatinNationalMap = [56]byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x01, 0x02, 0x03, 0x04, 0xff, 0x06, 0xff,
	0x00, 0x01, 0x02, 0x09, 0x04, 0x05, 0x06, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0x0a, 0xff, 0x07,
	0xff, 0xff, 0x0b, 0x03, 0x04, 0xff, 0x0c, 0xff,
	0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff,
	0xff, 0xff, 0xff, 0x09, 0xff, 0xff, 0xff, 0xff,
}

// g2Latin is the Latin G2 supplementary character set.
var g2Latin = [96]rune{
	0x0020, 0x00a1, 0x00a2, 0x00a3, 0x0024, 0x00a5, 0x0023, 0x00a7, 0x00a4, 0x2018, 0x201c, 0x00ab, 0x2190, 0x2191, 0x2192, 0x2193,
	0x00b0, 0x00b1, 0x00b2, 0x00b3, 0x00d7, 0x00b5, 0x00b6, 0x00b7, 0x00f7, 0x2019, 0x201d, 0x00bb, 0x00bc, 0x00bd, 0x00be, 0x00bf,
	0x0020, 0x0300, 0x0301, 0x0302, 0x0303, 0x0304, 0x0306, 0x0307, 0x0308, 0x0000, 0x030a, 0x0327, 0x005f, 0x030b, 0x0328, 0x030c,
	0x2015, 0x00b9, 0x00ae, 0x00a9, 0x2122, 0x266a, 0x20ac, 0x2030, 0x03b1, 0x0000, 0x0000, 0x0000, 0x215b, 0x215c, 0x215d, 0x215e,
	0x03a9, 0x00c6, 0x0110, 0x00aa, 0x0126, 0x0000, 0x0132, 0x013f, 0x0141, 0x00d8, 0x0152, 0x00ba, 0x00de, 0x0166, 0x014a, 0x0149,
	0x0138, 0x00e6, 0x0111, 0x00f0, 0x0127, 0x0131, 0x0133, 0x0140, 0x0142, 0x00f8, 0x0153, 0x00df, 0x00fe, 0x0167, 0x014b, 0x0020,
}

// g2AccentRow is one diacritic's 52-entry composition table, indexed
// A-Z then a-z (26+26).
type g2AccentRow = [52]rune

// g2Accents composes a base Latin letter with one of 15 diacritics. A
// zero entry means the combination is not representable.
var g2Accents = [15]g2AccentRow{
	{ // grave
		0x00c0, 0, 0, 0, 0x00c8, 0, 0, 0, 0x00cc, 0, 0, 0, 0, 0, 0x00d2, 0,
		0, 0, 0, 0, 0x00d9, 0, 0, 0, 0, 0, 0x00e0, 0, 0, 0, 0x00e8, 0,
		0, 0, 0x00ec, 0, 0, 0, 0, 0, 0x00f2, 0, 0, 0, 0, 0, 0x00f9, 0,
		0, 0, 0, 0,
	},
	{ // acute
		0x00c1, 0, 0x0106, 0, 0x00c9, 0, 0, 0, 0x00cd, 0, 0, 0x0139, 0, 0x0143, 0x00d3, 0,
		0, 0x0154, 0x015a, 0, 0x00da, 0, 0, 0, 0x00dd, 0x0179, 0x00e1, 0, 0x0107, 0, 0x00e9, 0,
		0x0123, 0, 0x00ed, 0, 0, 0x013a, 0, 0x0144, 0x00f3, 0, 0, 0x0155, 0x015b, 0, 0x00fa, 0,
		0, 0, 0x00fd, 0x017a,
	},
	{ // circumflex
		0x00c2, 0, 0x0108, 0, 0x00ca, 0, 0x011c, 0x0124, 0x00ce, 0x0134, 0, 0, 0, 0, 0x00d4, 0,
		0, 0, 0x015c, 0, 0x00db, 0, 0x0174, 0, 0x0176, 0, 0x00e2, 0, 0x0109, 0, 0x00ea, 0,
		0x011d, 0x0125, 0x00ee, 0x0135, 0, 0, 0, 0, 0x00f4, 0, 0, 0, 0x015d, 0, 0x00fb, 0,
		0x0175, 0, 0x0177, 0,
	},
	{ // tilde
		0x00c3, 0, 0, 0, 0, 0, 0, 0, 0x0128, 0, 0, 0, 0, 0x00d1, 0x00d5, 0,
		0, 0, 0, 0, 0x0168, 0, 0, 0, 0, 0, 0x00e3, 0, 0, 0, 0, 0,
		0, 0, 0x0129, 0, 0, 0, 0, 0x00f1, 0x00f5, 0, 0, 0, 0, 0, 0x0169, 0,
		0, 0, 0, 0,
	},
	{ // macron
		0x0100, 0, 0, 0, 0x0112, 0, 0, 0, 0x012a, 0, 0, 0, 0, 0, 0x014c, 0,
		0, 0, 0, 0, 0x016a, 0, 0, 0, 0, 0, 0x0101, 0, 0, 0, 0x0113, 0,
		0, 0, 0x012b, 0, 0, 0, 0, 0, 0x014d, 0, 0, 0, 0, 0, 0x016b, 0,
		0, 0, 0, 0,
	},
	{ // breve
		0x0102, 0, 0, 0, 0, 0, 0x011e, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0x016c, 0, 0, 0, 0, 0, 0x0103, 0, 0, 0, 0, 0,
		0x011f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x016d, 0,
		0, 0, 0, 0,
	},
	{ // dot
		0, 0, 0x010a, 0, 0x0116, 0, 0x0120, 0, 0x0130, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0x017b, 0, 0, 0x010b, 0, 0x0117, 0,
		0x0121, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0x017c,
	},
	{ // umlaut
		0x00c4, 0, 0, 0, 0x00cb, 0, 0, 0, 0x00cf, 0, 0, 0, 0, 0, 0x00d6, 0,
		0, 0, 0, 0, 0x00dc, 0, 0, 0, 0x0178, 0, 0x00e4, 0, 0, 0, 0x00eb, 0,
		0, 0, 0x00ef, 0, 0, 0, 0, 0, 0x00f6, 0, 0, 0, 0, 0, 0x00fc, 0,
		0, 0, 0x00ff, 0,
	},
	{}, // unused (matches telxcc.c's reserved row).
	{ // ring
		0x00c5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0x016e, 0, 0, 0, 0, 0, 0x00e5, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x016f, 0,
		0, 0, 0, 0,
	},
	{ // cedilla
		0, 0, 0x00c7, 0, 0, 0, 0x0122, 0, 0, 0, 0x0136, 0x013b, 0, 0x0145, 0, 0,
		0, 0x0156, 0x015e, 0x0162, 0, 0, 0, 0, 0, 0, 0, 0, 0x00e7, 0, 0, 0,
		0, 0, 0, 0, 0x0137, 0x013c, 0, 0x0146, 0, 0, 0, 0x0157, 0x015f, 0x0163, 0, 0,
		0, 0, 0, 0,
	},
	{}, // unused.
	{ // double acute
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x0150, 0,
		0, 0, 0, 0, 0x0170, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0x0151, 0, 0, 0, 0, 0, 0x0171, 0,
		0, 0, 0, 0,
	},
	{ // ogonek
		0x0104, 0, 0, 0, 0x0118, 0, 0, 0, 0x012e, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0x0172, 0, 0, 0, 0, 0, 0x0105, 0, 0, 0, 0x0119, 0,
		0, 0, 0x012f, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x0173, 0,
		0, 0, 0, 0,
	},
	{ // caron
		0, 0, 0x010c, 0x010e, 0x011a, 0, 0, 0, 0, 0, 0, 0x013d, 0, 0x0147, 0, 0,
		0, 0x0158, 0x0160, 0x0164, 0, 0, 0, 0, 0, 0x017d, 0, 0, 0x010d, 0x010f, 0x011b, 0,
		0, 0, 0, 0, 0, 0x013e, 0, 0x0148, 0, 0, 0, 0x0159, 0x0161, 0x0165, 0, 0,
		0, 0, 0, 0x017e,
	},
}

// composeG2 returns the accented form of base (an ASCII letter) under
// the given diacritic row, or base unchanged if no composition exists.
func composeG2(accent int, base rune) rune {
	if accent < 0 || accent >= len(g2Accents) {
		return base
	}
	var idx int
	switch {
	case base >= 'A' && base <= 'Z':
		idx = int(base - 'A')
	case base >= 'a' && base <= 'z':
		idx = 26 + int(base-'a')
	default:
		return base
	}
	if c := g2Accents[accent][idx]; c != 0 {
		return c
	}
	return base
}

// setG0Charset maps a page header's X/28 designation triplet to a
// default G0 charset, per ETS 300 706 Table 32.
func setG0Charset(triplet uint32) int {
	if triplet&0x3c00 == 0x1000 {
		switch triplet & 0x0380 {
		case 0x0000:
			return g0Cyrillic1
		case 0x0200:
			return g0Cyrillic2
		case 0x0280:
			return g0Cyrillic3
		}
	}
	return g0Latin
}

// remapG0Latin applies a national subset substitution to a copy of the
// Latin G0 table, per ETS 300 706 chapter 15.2.
func remapG0Latin(code byte) [96]rune {
	out := g0[g0Latin]
	if int(code&0x3f) >= len(g0LatinNationalMap) {
		return out
	}
	m := g0LatinNationalMap[code&0x3f]
	if m == 0xff {
		return out
	}
	subset := g0LatinNationalSubsets[m]
	for j, pos := range g0LatinNationalPositions {
		out[pos] = subset.characters[j]
	}
	return out
}
