package ims

// Reconcile trims v towards the declared (z, y, x) pixel counts. Axes are
// visited in the order z, y, x. When an axis is longer than declared, only the
// indices whose sum over the other two axes is strictly positive are kept;
// each axis is filtered on the output of the previous one. Axes at or below
// their declared length are left alone, so the result may be smaller than
// declared and is never padded.
//
// The filter cannot tell padding from a genuinely empty slice: an all-zero
// slice inside the data is dropped too, shifting the slices after it.
func Reconcile(v Volume, declared [3]int) Volume {
	raw := v.Shape()
	for axis := AxisZ; axis <= AxisX; axis++ {
		if raw[axis] <= declared[axis] {
			continue
		}
		sums := AxisSums(v, axis)
		keep := make([]int, 0, raw[axis])
		for i, s := range sums {
			if s > 0 {
				keep = append(keep, i)
			}
		}
		v = v.Select(axis, keep)
	}
	return v
}

// AxisSums returns, for every index along axis, the sum of v over the other
// two axes.
func AxisSums(v Volume, axis int) []float64 {
	s := v.Shape()
	sums := make([]float64, s[axis])
	for z := 0; z < s[AxisZ]; z++ {
		for y := 0; y < s[AxisY]; y++ {
			for x := 0; x < s[AxisX]; x++ {
				val := v.Value(z, y, x)
				switch axis {
				case AxisZ:
					sums[z] += val
				case AxisY:
					sums[y] += val
				default:
					sums[x] += val
				}
			}
		}
	}
	return sums
}
