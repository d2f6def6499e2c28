package engine

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ctcBlank is the reserved blank class index in recognition model output.
const ctcBlank = 0

// loadDictionary reads a character dictionary, one entry per line. Index 0
// is the CTC blank, so the character for class i lives at dict[i-1].
func loadDictionary(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	var dict []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		dict = append(dict, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	if len(dict) == 0 {
		return nil, fmt.Errorf("dictionary %s is empty", path)
	}
	return dict, nil
}

// decodeCTC greedily decodes recognition logits of shape [1, T, C]:
// per-step softmax and argmax, collapse repeats, drop blanks. The returned
// confidence is the mean probability of the emitted characters, 0 when
// nothing was emitted. Text is NFC-normalized.
func decodeCTC(data []float32, shape []int64, dict []string) (string, float64, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return "", 0, fmt.Errorf("unexpected recognition output shape %v", shape)
	}
	steps, classes := int(shape[1]), int(shape[2])
	if len(data) < steps*classes {
		return "", 0, fmt.Errorf("recognition output length %d < %d", len(data), steps*classes)
	}

	var b strings.Builder
	var probSum float64
	emitted := 0
	prev := -1

	for t := 0; t < steps; t++ {
		row := data[t*classes : (t+1)*classes]
		best, prob := softmaxArgmax(row)
		if best != ctcBlank && best != prev {
			if best-1 < len(dict) {
				b.WriteString(dict[best-1])
				probSum += prob
				emitted++
			}
		}
		prev = best
	}

	if emitted == 0 {
		return "", 0, nil
	}
	return norm.NFC.String(b.String()), probSum / float64(emitted), nil
}

// softmaxArgmax returns the argmax class and its softmax probability.
func softmaxArgmax(row []float32) (int, float64) {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	var denom float64
	maxV := float64(row[best])
	for _, v := range row {
		denom += math.Exp(float64(v) - maxV)
	}
	return best, 1 / denom
}
