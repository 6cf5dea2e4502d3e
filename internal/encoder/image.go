package encoder

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const visualModelFile = "visual_model.onnx"

// frameSize is the input resolution of the visual tower. Keyframes are
// extracted pre-scaled to this size by the ingestion pipeline.
const frameSize = 224

// CLIP pixel normalization constants (per RGB channel).
var (
	pixelMean = [3]float32{0.48145466, 0.4578275, 0.40821073}
	pixelStd  = [3]float32{0.26862954, 0.26130258, 0.27577711}
)

// ImageEncoder embeds keyframe images into the same space as text queries.
type ImageEncoder struct {
	session *ort.DynamicAdvancedSession
}

var (
	imageMu    sync.Mutex
	imageCache = map[string]*ImageEncoder{}
)

// LoadImage returns the keyframe encoder for the given model directory,
// loading it at most once per process.
func LoadImage(modelDir string) (*ImageEncoder, error) {
	imageMu.Lock()
	defer imageMu.Unlock()

	if enc, ok := imageCache[modelDir]; ok {
		return enc, nil
	}

	enc, err := newImageEncoder(modelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	imageCache[modelDir] = enc
	return enc, nil
}

func newImageEncoder(modelDir string) (*ImageEncoder, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("init onnx runtime: %v", err)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %v", err)
	}
	defer opts.Destroy()
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		return nil, fmt.Errorf("set graph optimization: %v", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		filepath.Join(modelDir, visualModelFile),
		[]string{"pixel_values"},
		[]string{"image_embeds"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create visual session: %v", err)
	}
	return &ImageEncoder{session: session}, nil
}

// EncodeFiles embeds a batch of keyframe image files (JPEG or PNG, already
// scaled to frameSize). Rows come back in input order, L2-normalized.
func (e *ImageEncoder) EncodeFiles(paths []string) ([][]float32, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("encode: empty frame batch")
	}

	pixels := make([]float32, 0, len(paths)*3*frameSize*frameSize)
	for _, p := range paths {
		chw, err := loadFramePixels(p)
		if err != nil {
			return nil, err
		}
		pixels = append(pixels, chw...)
	}

	shape := ort.NewShape(int64(len(paths)), 3, frameSize, frameSize)
	tensor, err := ort.NewTensor(shape, pixels)
	if err != nil {
		return nil, fmt.Errorf("create pixel tensor: %w", err)
	}
	defer tensor.Destroy()

	outputs := make([]ort.Value, 1)
	if err := e.session.Run([]ort.Value{tensor}, outputs); err != nil {
		return nil, fmt.Errorf("visual inference: %w", err)
	}
	defer outputs[0].Destroy()

	vecs, err := extractRows(outputs[0])
	if err != nil {
		return nil, err
	}
	for i := range vecs {
		Normalize(vecs[i])
	}
	return vecs, nil
}

// Close releases the ONNX session.
func (e *ImageEncoder) Close() error {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}

// loadFramePixels decodes one keyframe into CHW float32 pixel values with
// CLIP mean/std normalization applied.
func loadFramePixels(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyframe %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode keyframe %s: %w", path, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != frameSize || bounds.Dy() != frameSize {
		return nil, fmt.Errorf("keyframe %s is %dx%d, want %dx%d", path, bounds.Dx(), bounds.Dy(), frameSize, frameSize)
	}

	out := make([]float32, 3*frameSize*frameSize)
	plane := frameSize * frameSize
	for y := 0; y < frameSize; y++ {
		for x := 0; x < frameSize; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			i := y*frameSize + x
			out[i] = (float32(r)/65535.0 - pixelMean[0]) / pixelStd[0]
			out[plane+i] = (float32(g)/65535.0 - pixelMean[1]) / pixelStd[1]
			out[2*plane+i] = (float32(b)/65535.0 - pixelMean[2]) / pixelStd[2]
		}
	}
	return out, nil
}
