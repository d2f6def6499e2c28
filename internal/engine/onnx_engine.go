package engine

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/textsift/textsift/internal/aggregate"
	"github.com/textsift/textsift/internal/models"
	"github.com/textsift/textsift/internal/onnx"
)

const (
	// Detection input dimensions are padded to multiples of this stride.
	detStride = 32

	// Longest detection input side; larger pages are scaled down.
	detMaxSide = 960

	// Recognition input height; crops are scaled to this, width kept
	// proportional.
	recHeight = 32
)

// Config configures the ONNX engine adapter.
type Config struct {
	ModelsDir     string         `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	Languages     []string       `mapstructure:"languages" yaml:"languages" json:"languages"`
	NumThreads    int            `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	DetThreshold  float32        `mapstructure:"det_threshold" yaml:"det_threshold" json:"det_threshold"`
	MinRegionArea int            `mapstructure:"min_region_area" yaml:"min_region_area" json:"min_region_area"`
	GPU           onnx.GPUConfig `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
}

// DefaultConfig returns the default engine configuration (English only).
func DefaultConfig() Config {
	return Config{
		Languages:     []string{"en"},
		DetThreshold:  0.3,
		MinRegionArea: 16,
		GPU:           onnx.DefaultGPUConfig(),
	}
}

// Validate checks configuration values.
func (c Config) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("at least one language is required")
	}
	if c.DetThreshold < 0 || c.DetThreshold > 1 {
		return fmt.Errorf("det_threshold %v outside [0, 1]", c.DetThreshold)
	}
	if c.MinRegionArea < 0 {
		return fmt.Errorf("min_region_area %d is negative", c.MinRegionArea)
	}
	return c.GPU.Validate()
}

// ONNXEngine runs one detection model plus one recognition model and
// dictionary per configured language over ONNX Runtime.
type ONNXEngine struct {
	cfg  Config
	det  *ort.DynamicAdvancedSession
	rec  map[string]*ort.DynamicAdvancedSession
	dict map[string][]string
}

// NewONNX constructs the adapter, loading every model eagerly so a missing
// runtime library or model file fails here, not midway through a run.
func NewONNX(cfg Config) (*ONNXEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if err := onnx.EnsureRuntime(cfg.GPU.UseGPU); err != nil {
		return nil, err
	}

	e := &ONNXEngine{
		cfg:  cfg,
		rec:  make(map[string]*ort.DynamicAdvancedSession, len(cfg.Languages)),
		dict: make(map[string][]string, len(cfg.Languages)),
	}

	detPath := models.DetectionPath(cfg.ModelsDir)
	det, err := e.newSession(detPath)
	if err != nil {
		return nil, fmt.Errorf("detection model: %w", err)
	}
	e.det = det

	for _, lang := range cfg.Languages {
		sess, err := e.newSession(models.RecognitionPath(cfg.ModelsDir, lang))
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("recognition model (%s): %w", lang, err)
		}
		e.rec[lang] = sess

		dict, err := loadDictionary(models.DictionaryPath(cfg.ModelsDir, lang))
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("dictionary (%s): %w", lang, err)
		}
		e.dict[lang] = dict
	}
	return e, nil
}

func (e *ONNXEngine) newSession(modelPath string) (*ort.DynamicAdvancedSession, error) {
	if err := models.Exists(modelPath); err != nil {
		return nil, err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model %s: %w", modelPath, err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model %s declares no inputs/outputs", modelPath)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if err := e.cfg.GPU.ConfigureSession(opts); err != nil {
		return nil, err
	}
	if e.cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(e.cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", modelPath, err)
	}
	return sess, nil
}

// Languages returns the configured language codes.
func (e *ONNXEngine) Languages() []string {
	out := make([]string, len(e.cfg.Languages))
	copy(out, e.cfg.Languages)
	return out
}

// Recognize detects text regions on the page and decodes each one with the
// language's recognition model. A page without text returns an empty slice.
func (e *ONNXEngine) Recognize(ctx context.Context, img image.Image, lang string) ([]aggregate.Detection, error) {
	rec, ok := e.rec[lang]
	if !ok {
		return nil, fmt.Errorf("language %q not configured", lang)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	regions, err := e.detectRegions(img)
	if err != nil {
		return nil, err
	}

	dets := make([]aggregate.Detection, 0, len(regions))
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, conf, err := e.recognizeRegion(img, region, rec, e.dict[lang])
		if err != nil {
			return nil, err
		}
		if text == "" {
			// Region with no decodable characters is omitted.
			continue
		}
		dets = append(dets, aggregate.Detection{
			Text:       text,
			Confidence: conf,
			Box:        region.Box,
		})
	}
	return dets, nil
}

func (e *ONNXEngine) detectRegions(img image.Image) ([]Region, error) {
	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()
	detW, detH := detInputSize(origW, origH)

	resized := imaging.Resize(img, detW, detH, imaging.Linear)
	tensor := onnx.FromImage(resized)
	defer tensor.Release()

	data, shape, err := runSession(e.det, tensor)
	if err != nil {
		return nil, fmt.Errorf("detection inference: %w", err)
	}
	if len(shape) != 4 {
		return nil, fmt.Errorf("detection output rank %d != 4", len(shape))
	}
	mapW, mapH := int(shape[3]), int(shape[2])

	regions := regionsFromScoreMap(data, mapW, mapH, e.cfg.DetThreshold, e.cfg.MinRegionArea)
	sx := float64(origW) / float64(mapW)
	sy := float64(origH) / float64(mapH)
	for i := range regions {
		regions[i] = scaleRegion(regions[i], sx, sy)
	}
	return regions, nil
}

func (e *ONNXEngine) recognizeRegion(img image.Image, region Region,
	sess *ort.DynamicAdvancedSession, dict []string,
) (string, float64, error) {
	rect := region.Box.ToRect(img.Bounds())
	if rect.Empty() {
		return "", 0, nil
	}
	crop := imaging.Crop(img, rect)

	w := int(math.Round(float64(rect.Dx()) * recHeight / float64(rect.Dy())))
	if w < 8 {
		w = 8
	}
	resized := imaging.Resize(crop, w, recHeight, imaging.Linear)

	tensor := onnx.FromImage(resized)
	defer tensor.Release()

	data, shape, err := runSession(sess, tensor)
	if err != nil {
		return "", 0, fmt.Errorf("recognition inference: %w", err)
	}
	return decodeCTC(data, shape, dict)
}

// Close destroys every loaded session. Safe to call on a partially
// constructed engine.
func (e *ONNXEngine) Close() error {
	if e.det != nil {
		_ = e.det.Destroy()
		e.det = nil
	}
	for lang, sess := range e.rec {
		_ = sess.Destroy()
		delete(e.rec, lang)
	}
	return nil
}

// runSession runs one inference and copies out the float32 output before
// destroying the runtime-owned tensors.
func runSession(sess *ort.DynamicAdvancedSession, tensor onnx.Tensor) ([]float32, []int64, error) {
	if err := tensor.Verify(); err != nil {
		return nil, nil, err
	}
	input, err := ort.NewTensor(ort.NewShape(tensor.Shape...), tensor.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	outputs := []ort.Value{nil}
	if err := sess.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 output tensor, got %T", outputs[0])
	}

	src := floatTensor.GetData()
	data := make([]float32, len(src))
	copy(data, src)
	shape := outputs[0].GetShape()
	shapeCopy := make([]int64, len(shape))
	copy(shapeCopy, shape)
	return data, shapeCopy, nil
}

// detInputSize pads dimensions to the detection stride and caps the longer
// side, preserving aspect ratio.
func detInputSize(w, h int) (int, int) {
	scale := 1.0
	longer := max(w, h)
	if longer > detMaxSide {
		scale = float64(detMaxSide) / float64(longer)
	}
	round := func(v float64) int {
		n := int(math.Round(v/detStride)) * detStride
		if n < detStride {
			n = detStride
		}
		return n
	}
	return round(float64(w) * scale), round(float64(h) * scale)
}
