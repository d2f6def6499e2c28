package engine

import (
	"github.com/textsift/textsift/internal/geometry"
)

// Region is one connected high-score area of a detection map.
type Region struct {
	Box   geometry.Box
	Score float64 // mean map score over the component
}

// regionsFromScoreMap binarizes a detection score map at threshold and
// extracts the bounding box of each 4-connected component, dropping
// components smaller than minArea pixels. Coordinates are in map space;
// the caller scales them back to image space.
func regionsFromScoreMap(data []float32, w, h int, threshold float32, minArea int) []Region {
	if w <= 0 || h <= 0 || len(data) < w*h {
		return nil
	}
	visited := make([]bool, w*h)
	var regions []Region

	// Scratch queue reused across components.
	queue := make([]int, 0, 256)

	for start := 0; start < w*h; start++ {
		if visited[start] || data[start] < threshold {
			continue
		}

		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		var sum float64
		area := 0

		queue = append(queue[:0], start)
		visited[start] = true
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := idx%w, idx/w

			area++
			sum += float64(data[idx])
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for _, n := range [4]int{idx - 1, idx + 1, idx - w, idx + w} {
				if n < 0 || n >= w*h || visited[n] {
					continue
				}
				// Horizontal neighbors must stay on the same row.
				if (n == idx-1 || n == idx+1) && n/w != y {
					continue
				}
				if data[n] >= threshold {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}

		if area < minArea {
			continue
		}
		regions = append(regions, Region{
			Box: geometry.Box{
				MinX: float64(minX),
				MinY: float64(minY),
				MaxX: float64(maxX + 1),
				MaxY: float64(maxY + 1),
			},
			Score: sum / float64(area),
		})
	}
	return regions
}

// scaleRegion maps a region box from score-map space to image space.
func scaleRegion(r Region, sx, sy float64) Region {
	return Region{
		Box: geometry.Box{
			MinX: r.Box.MinX * sx,
			MinY: r.Box.MinY * sy,
			MaxX: r.Box.MaxX * sx,
			MaxY: r.Box.MaxY * sy,
		},
		Score: r.Score,
	}
}
