package pattern

import "math"

// emitSquare fills a square with shots on the exposure grid in the
// configured scan order. Raster, serpentine and spiral visit the same
// point set; only the order differs.
func (g *Generator) emitSquare(cx, cy float64) {
	grid := g.Params.ExposureGrid()
	halfSize := g.Params.Size / 2.0

	nShots := int(g.Params.Size / grid)
	if float64(nShots)*grid < g.Params.Size {
		nShots++
	}
	if nShots < 1 {
		nShots = 1
	}

	at := func(i int) float64 { return -halfSize + float64(i)*grid }
	place := func(ix, iy int) {
		x := cx + at(ix)
		y := cy + at(iy)
		if math.Abs(x-cx) <= halfSize && math.Abs(y-cy) <= halfSize {
			g.addShot(x, y, g.squareRank(x, y, cx, cy))
		}
	}

	switch g.Params.ScanOrder {
	case Raster:
		for iy := 0; iy < nShots; iy++ {
			for ix := 0; ix < nShots; ix++ {
				place(ix, iy)
			}
		}
	case Serpentine:
		for iy := 0; iy < nShots; iy++ {
			if iy%2 == 0 {
				for ix := 0; ix < nShots; ix++ {
					place(ix, iy)
				}
			} else {
				for ix := nShots - 1; ix >= 0; ix-- {
					place(ix, iy)
				}
			}
		}
	case Spiral:
		left, right := 0, nShots-1
		top, bottom := 0, nShots-1
		for left <= right && top <= bottom {
			for ix := left; ix <= right; ix++ {
				place(ix, top)
			}
			top++
			for iy := top; iy <= bottom; iy++ {
				place(right, iy)
			}
			right--
			if top <= bottom {
				for ix := right; ix >= left; ix-- {
					place(ix, bottom)
				}
				bottom--
			}
			if left <= right {
				for iy := bottom; iy >= top; iy-- {
					place(left, iy)
				}
				left++
			}
		}
	}
}

// squareRank classifies a shot as interior (0), edge (1) or corner (2) by
// proximity to the square boundary: within one exposure-grid step. Ranks
// only select modulation-table entries; the table itself sets the policy.
func (g *Generator) squareRank(x, y, cx, cy float64) uint8 {
	grid := g.Params.ExposureGrid()
	halfSize := g.Params.Size / 2.0

	nearLeft := math.Abs(x-(cx-halfSize)) < grid
	nearRight := math.Abs(x-(cx+halfSize)) < grid
	nearTop := math.Abs(y-(cy+halfSize)) < grid
	nearBottom := math.Abs(y-(cy-halfSize)) < grid

	switch {
	case (nearLeft || nearRight) && (nearTop || nearBottom):
		return 2
	case nearLeft || nearRight || nearTop || nearBottom:
		return 1
	}
	return 0
}

// emitLine fills a horizontal line along the x axis. Endpoints get rank 1.
func (g *Generator) emitLine(cx, cy float64) {
	grid := g.Params.ExposureGrid()

	nPoints := int(g.Params.Size / grid)
	if nPoints < 1 {
		nPoints = 1
	}
	halfLength := float64(nPoints-1) * grid / 2.0

	for i := 0; i < nPoints; i++ {
		x := cx - halfLength + float64(i)*grid
		rank := uint8(0)
		if i == 0 || i == nPoints-1 {
			rank = 1
		}
		g.addShot(x, cy, rank)
	}
}

// emitCross fills a cross: a horizontal and a vertical line through the
// center, skipping the duplicate center point.
func (g *Generator) emitCross(cx, cy float64) {
	grid := g.Params.ExposureGrid()

	nPoints := int(g.Params.Size / grid)
	if nPoints < 1 {
		nPoints = 1
	}
	halfLength := float64(nPoints-1) * grid / 2.0

	endpointRank := func(i int) uint8 {
		if i == 0 || i == nPoints-1 {
			return 1
		}
		return 0
	}

	for i := 0; i < nPoints; i++ {
		g.addShot(cx-halfLength+float64(i)*grid, cy, endpointRank(i))
	}
	for j := 0; j < nPoints; j++ {
		// only an odd arm has a point at the center, and the
		// horizontal pass already emitted it
		if nPoints%2 == 1 && j == nPoints/2 {
			continue
		}
		g.addShot(cx, cy-halfLength+float64(j)*grid, endpointRank(j))
	}
}
