package treemap

import "math"

// squarify lays out the children of parent in rows whose aspect ratios stay
// close to ratio. Children are consumed in order; a row grows while adding
// the next child does not worsen its worst aspect ratio.
func squarify(parent *Node, x0, y0, x1, y1, ratio float64) {
	nodes := parent.Children
	n := len(nodes)
	value := parent.Value

	i0, i1 := 0, 0
	for i0 < n {
		if value <= 0 || math.IsNaN(value) {
			// Nothing left to apportion; the rest get no area.
			for _, c := range nodes[i0:] {
				c.X0, c.Y0, c.X1, c.Y1 = x0, y0, x0, y0
			}
			return
		}
		dx, dy := x1-x0, y1-y0

		// Find the next non-empty node.
		var sum float64
		for {
			sum = nodes[i1].Value
			i1++
			if !(sum == 0 || math.IsNaN(sum)) || i1 >= n {
				break
			}
		}
		minValue, maxValue := sum, sum
		alpha := max(dy/dx, dx/dy) / (value * ratio)
		beta := sum * sum * alpha
		minRatio := max(maxValue/beta, beta/minValue)

		// Keep adding nodes while the aspect ratio maintains or improves.
		for ; i1 < n; i1++ {
			v := nodes[i1].Value
			sum += v
			minValue = min(minValue, v)
			maxValue = max(maxValue, v)
			beta = sum * sum * alpha
			newRatio := max(maxValue/beta, beta/minValue)
			if newRatio > minRatio {
				sum -= v
				break
			}
			minRatio = newRatio
		}

		row := nodes[i0:i1]
		if dx < dy {
			// Horizontal row across the top of the remaining space.
			top, bottom := y0, y1
			if dy != 0 {
				y0 += dy * sum / value
				bottom = y0
			}
			dice(row, sum, x0, top, x1, bottom)
		} else {
			// Vertical column along the left of the remaining space.
			left, right := x0, x1
			if dx != 0 {
				x0 += dx * sum / value
				right = x0
			}
			slice(row, sum, left, y0, right, y1)
		}
		value -= sum
		i0 = i1
	}
}

// dice spreads nodes left to right across [x0,x1].
func dice(nodes []*Node, total, x0, y0, x1, y1 float64) {
	var k float64
	if total != 0 {
		k = (x1 - x0) / total
	}
	for _, c := range nodes {
		c.Y0, c.Y1 = y0, y1
		c.X0 = x0
		x0 += c.Value * k
		c.X1 = x0
	}
}

// slice spreads nodes top to bottom across [y0,y1].
func slice(nodes []*Node, total, x0, y0, x1, y1 float64) {
	var k float64
	if total != 0 {
		k = (y1 - y0) / total
	}
	for _, c := range nodes {
		c.X0, c.X1 = x0, x1
		c.Y0 = y0
		y0 += c.Value * k
		c.Y1 = y0
	}
}
