package transform

// forwardRCT applies the reversible color transform in place:
//
//	Y = floor((R + 2G + B) / 4)
//	U = B - G
//	V = R - G
func forwardRCT(r, g, b []int32) {
	for i := range r {
		rv, gv, bv := r[i], g[i], b[i]
		r[i] = (rv + 2*gv + bv) >> 2
		g[i] = bv - gv
		b[i] = rv - gv
	}
}

// inverseRCT reverses forwardRCT; the planes hold Y, U, V on entry and
// R, G, B on return.
func inverseRCT(y, u, v []int32) {
	for i := range y {
		uv, vv := u[i], v[i]
		gv := y[i] - (uv+vv)>>2
		y[i] = vv + gv
		u[i] = gv
		v[i] = uv + gv
	}
}

// BT.601 full range YCbCr, applied to level shifted samples.
func forwardYCbCr(r, g, b []float32) {
	for i := range r {
		rv, gv, bv := r[i], g[i], b[i]
		r[i] = float32(0.299*rv) + float32(0.587*gv) + float32(0.114*bv)
		g[i] = float32(-0.168736*rv) + float32(-0.331264*gv) + float32(0.5*bv)
		b[i] = float32(0.5*rv) + float32(-0.418688*gv) + float32(-0.081312*bv)
	}
}

func inverseYCbCr(y, cb, cr []float32) {
	for i := range y {
		yv, cbv, crv := y[i], cb[i], cr[i]
		y[i] = yv + float32(1.402*crv)
		cb[i] = yv + float32(-0.344136*cbv) + float32(-0.714136*crv)
		cr[i] = yv + float32(1.772*cbv)
	}
}
