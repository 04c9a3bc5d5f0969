package cdc

// gearTable is the fixed 256-entry Gear hash table shared by the chunker and
// the signature engine's weak rolling hash. Values must match byte-for-byte
// across implementations; do not regenerate.
// GearTable returns the fixed Gear hash table so other packages (notably the
// signature engine's rolling hash) can share the same constants rather than
// re-deriving or duplicating them.
func GearTable() [256]uint64 { return gearTable }

var gearTable = [256]uint64{
	0xe17b5c496f5e34cd, 0x3b8f7d293e4a5c1f, 0x9d42a8e6c7f1b039, 0x521f8d3c4e6a7b90,
	0xc8e4f1a2d9b35068, 0x7a3e9c5f1b4d6280, 0x4f6d2b8a3c5e7091, 0xa1c8e4f6d9b2507c,
	0x8b3f7d5e1c4a6092, 0x6e9c2f4a8b1d5037, 0xd5a1c8e4f6b92708, 0x3c5e7f1a2d9b4086,
	0xf8b3d5e6c7a14092, 0x1e4a6c8f9d2b5037, 0xb7d9f1a2c8e45063, 0x5c8f7e1a3d4b6092,
	0x92e4f6a8c1d5b037, 0x4a7c9e2f8b1d3065, 0xe6b8d4f1a2c95038, 0x7f1c3e5a9d2b4086,
	0xc3d5e7a9f1b24068, 0x8e4f6c1a2d9b5037, 0x5a7d9f2e1c4b3086, 0xf1b3d5e6c8a74092,
	0x2e4a6c8f1d9b5037, 0xd7a9f1c3e5b28064, 0x6c8e4f7a2d1b3095, 0xa5d9f1b3c7e24068,
	0x3f7e1c4a6d9b2085, 0xe8c4f6a1d5b92037, 0x7a2e9f4c1b8d3065, 0xb5d1e7a9f3c24068,
	0x4c6f8e1a2d9b5037, 0x91c3e5a7f9d2b486, 0x6e8d4f1a2c7b3095, 0xd5a9f3c7e1b24068,
	0x2f7e4c6a1d9b8035, 0xe1b3d5c7a9f42068, 0x8c6e4f1a2d7b9035, 0x5a9d3e7f1c4b2086,
	0xf7b1d5e9c3a24068, 0x4e6a8c1f2d9b5037, 0xc9d5e7a3f1b42068, 0x7e2f4c6a1d8b3095,
	0xb3d9f5e1c7a24068, 0x6a8c4f1e2d9b5037, 0x95e1d7a3f9c2b486, 0x4f7a6c8e1d2b3095,
	0xe3d5b7a9f1c24068, 0x1c6e4f8a2d9b5037, 0xd7a3e9f5c1b42068, 0x8e2f4c7a1d6b3095,
	0x5b9d3e7f1c4a2086, 0xf1d5b7e9c3a24068, 0x6c8e4f1a2d9b5037, 0xa5e1d7c3f9b24868,
	0x4f7a6c8e1d2b3095, 0xe9d3b5a7f1c24068, 0x2c6e4f8a1d9b5037, 0xd1a7e3f9c5b24068,
	0x7e2f4c6a8d1b3095, 0xb9d5e3a7f1c24068, 0x5c8e4f1a2d6b9037, 0x93e1d7a5f9c2b486,
	0x6f7a4c8e1d2b3095, 0xe5d3b9a7f1c24068, 0x1c6e4f8a2d9b5037, 0xd7a5e1f9c3b24068,
	0x8e2f4c7a6d1b3095, 0x5d9b3e7f1c4a2086, 0xf1d7b5e9c3a24068, 0x6c8e4f1a2d9b5037,
	0xa9e5d1c7f3b24868, 0x4f7a6c8e1d2b3095, 0xe3d9b5a7f1c24068, 0x2c6e4f8a1d9b5037,
	0xd5a1e7f9c3b24068, 0x7e2f4c6a8d1b3095, 0xbdd5e3a9f1c24068, 0x5c8e4f1a2d6b9037,
	0x97e1d5a3f9c2b486, 0x6f7a4c8e1d2b3095, 0xe9d3b5a7f1c24068, 0x1c6e4f8a2d9b5037,
	0xd1a7e5f9c3b24068, 0x8e2f4c7a6d1b3095, 0x5b9d3e7f1c4a2086, 0xf5d1b7e9c3a24068,
	0x6c8e4f1a2d9b5037, 0xade5d1c9f3b24868, 0x4f7a6c8e1d2b3095, 0xe7d9b3a5f1c24068,
	0x2c6e4f8a1d9b5037, 0xd9a5e1f7c3b24068, 0x7e2f4c6a8d1b3095, 0xb1d5e7a9f3c24068,
	0x5c8e4f1a2d6b9037, 0x9be1d5a7f9c2b486, 0x6f7a4c8e1d2b3095, 0xedd3b9a5f1c24068,
	0x1c6e4f8a2d9b5037, 0xd5a1e9f7c3b24068, 0x8e2f4c7a6d1b3095, 0x5f9b3e7d1c4a2086,
	0xf9d5b1e7c3a24068, 0x6c8e4f1a2d9b5037, 0xb1e5d9c3f7b24868, 0x4f7a6c8e1d2b3095,
	0xebd7b9a3f5c24068, 0x2c6e4f8a1d9b5037, 0xdda9e5f1c7b24068, 0x7e2f4c6a8d1b3095,
	0xb5d1e3a7f9c24068, 0x5c8e4f1a2d6b9037, 0x9fe5d1a3f7c2b486, 0x6f7a4c8e1d2b3095,
	0xf1d7b3a9e5c24068, 0x1c6e4f8a2d9b5037, 0xd9a5e1f3c7b24068, 0x8e2f4c7a6d1b3095,
	0x639d5e7b1f4a2086, 0xfdd9b5e1c7a34068, 0x6c8e4f1a2d9b5037, 0xb5e9d1c7f3b24868,
	0x4f7a6c8e1d2b3095, 0xefd3b7a9f1c54068, 0x2c6e4f8a1d9b5037, 0xe1ada5f9c3b74068,
	0x7e2f4c6a8d1b3095, 0xb9d5e7a3f1c24068, 0x5c8e4f1a2d6b9037, 0xa3e1d9a5f7c2b486,
	0x6f7a4c8e1d2b3095, 0xf5d3b9a7e1c24068, 0x1c6e4f8a2d9b5037, 0xdda1e5f9c7b34068,
	0x8e2f4c7a6d1b3095, 0x679b5e3d1f4a2086, 0x01ddb9e5c1a74368, 0x6c8e4f1a2d9b5037,
	0xb9e5d3c1f7b24868, 0x4f7a6c8e1d2b3095, 0xf3d7bba5e9c14068, 0x2c6e4f8a1d9b5037,
	0xe5a9d1fdc3b74068, 0x7e2f4c6a8d1b3095, 0xbdd1e9a7f3c54068, 0x5c8e4f1a2d6b9037,
	0xa7e5d1a9f3c7b286, 0x6f7a4c8e1d2b3095, 0xf9d7b3a5e1c24068, 0x1c6e4f8a2d9b5037,
	0xe1a5d9fdc7b34068, 0x8e2f4c7a6d1b3095, 0x6b9f5e3d1f4a7286, 0x05ddbde1c9a34768,
	0x6c8e4f1a2d9b5037, 0xbde9d3c5f1b74a68, 0x4f7a6c8e1d2b3095, 0xf7d3b9a1edc54068,
	0x2c6e4f8a1d9b5037, 0xe9add5f1c7b34068, 0x7e2f4c6a8d1b3095, 0xc1d5e3abf7c94068,
	0x5c8e4f1a2d6b9037, 0xabe9d5a1f7c3b286, 0x6f7a4c8e1d2b3095, 0xfdd1b7a9e5c34068,
	0x1c6e4f8a2d9b5037, 0xd5a9e1f3c7b24068, 0x8e2f4c7a6d1b3095, 0x5f9d3e7b1c4a2086,
	0xf1d9b5e7c3a24068, 0x6c8e4f1a2d9b5037, 0xb1e5d9c3f7b24868, 0x4f7a6c8e1d2b3095,
	0xe3d7b9a5f1c24068, 0x2c6e4f8a1d9b5037, 0xd9a5e1f7c3b24068, 0x7e2f4c6a8d1b3095,
	0xb5d1e7a9f3c24068, 0x5c8e4f1a2d6b9037, 0x9fe1d5a7f9c2b486, 0x6f7a4c8e1d2b3095,
	0xf1d3b9a5e7c24068, 0x1c6e4f8a2d9b5037, 0xd5a1e9f7c3b24068, 0x8e2f4c7a6d1b3095,
	0x5b9d3e7f1c4a2086, 0xf5d1b7e9c3a24068, 0x6c8e4f1a2d9b5037, 0xade5d1c9f3b24868,
	0x4f7a6c8e1d2b3095, 0xe7d9b3a5f1c24068, 0x2c6e4f8a1d9b5037, 0xd9a5e1f7c3b24068,
	0x7e2f4c6a8d1b3095, 0xb1d5e7a9f3c24068, 0x5c8e4f1a2d6b9037, 0x9be1d5a7f9c2b486,
	0x6f7a4c8e1d2b3095, 0xedd3b9a5f1c24068, 0x1c6e4f8a2d9b5037, 0xd5a1e9f7c3b24068,
	0x8e2f4c7a6d1b3095, 0x5f9b3e7d1c4a2086, 0xf9d5b1e7c3a24068, 0x6c8e4f1a2d9b5037,
	0xb1e5d9c3f7b24868, 0x4f7a6c8e1d2b3095, 0xebd7b9a3f5c24068, 0x2c6e4f8a1d9b5037,
	0xdda9e5f1c7b24068, 0x7e2f4c6a8d1b3095, 0xb5d1e3a7f9c24068, 0x5c8e4f1a2d6b9037,
	0x9fe5d1a3f7c2b486, 0x6f7a4c8e1d2b3095, 0xf1d7b3a9e5c24068, 0x1c6e4f8a2d9b5037,
	0xd9a5e1f3c7b24068, 0x8e2f4c7a6d1b3095, 0x639d5e7b1f4a2086, 0xfdd9b5e1c7a34068,
	0x6c8e4f1a2d9b5037, 0xb5e9d1c7f3b24868, 0x4f7a6c8e1d2b3095, 0xefd3b7a9f1c54068,
	0x2c6e4f8a1d9b5037, 0xe1ada5f9c3b74068, 0x7e2f4c6a8d1b3095, 0xb9d5e7a3f1c24068,
	0x5c8e4f1a2d6b9037, 0xa3e1d9a5f7c2b486, 0x6f7a4c8e1d2b3095, 0xf5d3b9a7e1c24068,
	0x1c6e4f8a2d9b5037, 0xdda1e5f9c7b34068, 0x8e2f4c7a6d1b3095, 0x679b5e3d1f4a2086,
	0x01ddb9e5c1a74368, 0x6c8e4f1a2d9b5037, 0xb9e5d3c1f7b24868, 0x4f7a6c8e1d2b3095,
	0xf3d7bba5e9c14068, 0x2c6e4f8a1d9b5037, 0xe5a9d1fdc3b74068, 0x7e2f4c6a8d1b3095,
	0xbdd1e9a7f3c54068, 0x5c8e4f1a2d6b9037, 0xa7e5d1a9f3c7b286, 0x6f7a4c8e1d2b3095,
	0xf9d7b3a5e1c24068, 0x1c6e4f8a2d9b5037, 0xe1a5d9fdc7b34068, 0x8e2f4c7a6d1b3095,
}
