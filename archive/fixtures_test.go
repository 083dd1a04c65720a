package archive

// Two tiny pre-compressed tarballs, for exercising the decompression
// stacks the fixture builders can't produce (stdlib bzip2 and xi2/xz
// only read).  Both hold the same tree:
//
//	proj-1.0/         dir  0755
//	proj-1.0/README   file 0644  "hello release\n"
//
// with all times set to 2016-03-01 10:30:00 UTC, uid/gid 0.

var fixtureTarXz = []byte{
	0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00, 0x00, 0x04, 0xe6, 0xd6, 0xb4, 0x46,
	0x02, 0x00, 0x21, 0x01, 0x16, 0x00, 0x00, 0x00, 0x74, 0x2f, 0xe5, 0xa3,
	0xe0, 0x27, 0xff, 0x00, 0x8a, 0x5d, 0x00, 0x38, 0x1c, 0x8a, 0x22, 0x32,
	0x7f, 0xa7, 0x81, 0x54, 0xe9, 0xed, 0x30, 0xb5, 0x16, 0xb5, 0x09, 0xb4,
	0x7c, 0x7d, 0x79, 0x88, 0xf8, 0x39, 0x6a, 0xcd, 0x4b, 0x15, 0x62, 0x8e,
	0x29, 0x8d, 0x47, 0xd3, 0x84, 0x70, 0xae, 0xaa, 0xe2, 0x8a, 0xac, 0xba,
	0x4c, 0x01, 0x84, 0x56, 0x07, 0x87, 0xda, 0x4b, 0xf7, 0xfa, 0x0e, 0xcb,
	0x79, 0x1e, 0x4d, 0xf9, 0xe4, 0xa0, 0x25, 0x30, 0x00, 0xdb, 0x3d, 0x63,
	0xdd, 0x3b, 0x13, 0x5d, 0xc1, 0x8d, 0x36, 0x77, 0x51, 0xf1, 0xd1, 0xce,
	0xa9, 0x45, 0xbf, 0x7a, 0x34, 0x31, 0xb4, 0x7c, 0xa3, 0x2a, 0x75, 0xa5,
	0x3f, 0xb5, 0x1a, 0xdc, 0xc4, 0x33, 0x02, 0xc8, 0xbc, 0x22, 0x64, 0x46,
	0xec, 0x27, 0xb0, 0x8d, 0x94, 0xb5, 0xd7, 0x25, 0x1b, 0x4b, 0xd6, 0xe2,
	0x9a, 0x0c, 0x35, 0x65, 0x84, 0x4c, 0x42, 0xbc, 0xb4, 0xad, 0xf3, 0xf2,
	0x2d, 0xbc, 0x61, 0x40, 0x17, 0x9a, 0xc3, 0x0f, 0x29, 0xf3, 0x4a, 0xc7,
	0x00, 0x00, 0x00, 0x00, 0xe7, 0xa0, 0x9d, 0x2c, 0xf8, 0x33, 0x6f, 0xb9,
	0x00, 0x01, 0xa6, 0x01, 0x80, 0x50, 0x00, 0x00, 0x15, 0x97, 0x95, 0xb0,
	0xb1, 0xc4, 0x67, 0xfb, 0x02, 0x00, 0x00, 0x00, 0x00, 0x04, 0x59, 0x5a,
}

var fixtureTarBz2 = []byte{
	0x42, 0x5a, 0x68, 0x39, 0x31, 0x41, 0x59, 0x26, 0x53, 0x59, 0x14, 0xf8,
	0x98, 0x50, 0x00, 0x00, 0x9d, 0xff, 0x80, 0xca, 0x90, 0x10, 0x00, 0x40,
	0x03, 0xf7, 0x80, 0x26, 0x02, 0x30, 0x80, 0x62, 0x54, 0xde, 0x00, 0x08,
	0x08, 0x20, 0x00, 0x92, 0x86, 0xa6, 0xa6, 0x6a, 0x00, 0x00, 0x64, 0x6d,
	0x40, 0xc8, 0x09, 0x22, 0x28, 0xf4, 0x1a, 0x86, 0x99, 0x34, 0x06, 0x99,
	0x0c, 0xd4, 0xa7, 0x4b, 0x67, 0x73, 0x11, 0x48, 0x0a, 0xf7, 0xa4, 0x84,
	0x5d, 0x7f, 0xd1, 0xe5, 0x60, 0x54, 0x4f, 0x07, 0x2a, 0x10, 0x86, 0x16,
	0x4e, 0xbe, 0x68, 0x62, 0x6e, 0x30, 0x62, 0xc1, 0x80, 0xc4, 0x90, 0xe0,
	0x1e, 0x72, 0x80, 0x12, 0x8f, 0x61, 0xa0, 0x37, 0x58, 0x97, 0xd6, 0x73,
	0x21, 0xca, 0x24, 0xcc, 0xc3, 0x03, 0x0e, 0x75, 0x87, 0x28, 0x15, 0x04,
	0x16, 0xdd, 0x9e, 0x88, 0x6f, 0x25, 0x44, 0x36, 0x30, 0x48, 0x7c, 0x82,
	0x50, 0x60, 0xc7, 0x87, 0x10, 0xef, 0x43, 0xd0, 0xb4, 0xa1, 0xc4, 0x48,
	0x3f, 0x8b, 0xb9, 0x22, 0x9c, 0x28, 0x48, 0x0a, 0x7c, 0x4c, 0x28, 0x00,
}
