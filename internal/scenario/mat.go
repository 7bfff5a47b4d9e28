package scenario

// mat4 is a row-major 4x4 matrix with the translation in m[12:15].
type mat4 [16]float32

func identity() mat4 {
	var r mat4
	for i := range r {
		if i%5 == 0 {
			r[i] = 1
		}
	}
	return r
}

func translate(tx, ty, tz float32) mat4 {
	r := identity()
	r[12], r[13], r[14] = tx, ty, tz
	return r
}

func mul(a, b *mat4) mat4 {
	var r mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float32
			for k := 0; k < 4; k++ {
				s += a[i*4+k] * b[k*4+j]
			}
			r[i*4+j] = s
		}
	}
	return r
}

func near(a, b float32) bool {
	d := a - b
	return d < 1e-4 && d > -1e-4
}
