package encoder

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ErrModelUnavailable is returned when the encoder's backing model cannot be
// loaded (missing weights, missing tokenizer, ONNX runtime unavailable).
var ErrModelUnavailable = errors.New("encoder model unavailable")

// Artifact names expected inside a model directory.
const (
	tokenizerFile = "tokenizer.json"
	textModelFile = "text_model.onnx"
)

var ortInit sync.Once

func initRuntime() error {
	var err error
	ortInit.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		err = ort.InitializeEnvironment()
	})
	if err == nil && !ort.IsInitialized() {
		return fmt.Errorf("onnx runtime not initialized")
	}
	return err
}

// TextEncoder maps text strings into the shared clip embedding space.
// Encoded vectors are comparable to keyframe embeddings from ImageEncoder.
type TextEncoder struct {
	tok     *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
}

var (
	textMu    sync.Mutex
	textCache = map[string]*TextEncoder{}
)

// LoadText returns the text encoder for the given model directory. The model
// is loaded at most once per process and cached for its lifetime; callers
// share the returned instance. The cache assignment is idempotent, so a
// duplicate load under races is wasteful but not unsafe.
func LoadText(modelDir string) (*TextEncoder, error) {
	textMu.Lock()
	defer textMu.Unlock()

	if enc, ok := textCache[modelDir]; ok {
		return enc, nil
	}

	enc, err := newTextEncoder(modelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	textCache[modelDir] = enc
	return enc, nil
}

func newTextEncoder(modelDir string) (*TextEncoder, error) {
	tok, err := pretrained.FromFile(filepath.Join(modelDir, tokenizerFile))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %v", err)
	}

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
		filepath.Join(modelDir, textModelFile),
		[]string{"input_ids", "attention_mask"},
		[]string{"text_embeds"},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("create text session: %v", err)
	}

	return &TextEncoder{tok: tok, session: session}, nil
}

// Encode embeds a batch of texts. The result has one row per input text, in
// input order, and every row is L2-normalized to unit length.
func (e *TextEncoder) Encode(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("encode: empty text batch")
	}

	inputs := make([]tokenizer.EncodeInput, len(texts))
	for i, t := range texts {
		inputs[i] = tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(t))
	}
	encodings, err := e.tok.EncodeBatch(inputs, true)
	if err != nil {
		return nil, fmt.Errorf("tokenize batch: %w", err)
	}

	ids, mask, maxLen := padTokenBatch(encodings)
	batch := int64(len(encodings))

	idsTensor, err := ort.NewTensor(ort.NewShape(batch, maxLen), ids)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()

	maskTensor, err := ort.NewTensor(ort.NewShape(batch, maxLen), mask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs := make([]ort.Value, 1)
	if err := e.session.Run([]ort.Value{idsTensor, maskTensor}, outputs); err != nil {
		return nil, fmt.Errorf("text inference: %w", err)
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

// EncodeSingle embeds one text.
func (e *TextEncoder) EncodeSingle(text string) ([]float32, error) {
	vecs, err := e.Encode([]string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Close releases the ONNX session. The runtime environment itself stays up
// for the rest of the process.
func (e *TextEncoder) Close() error {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}

// padTokenBatch flattens a tokenized batch into row-major int64 id and
// attention-mask buffers, zero-padded to the longest sequence.
func padTokenBatch(encodings []tokenizer.Encoding) (ids, mask []int64, maxLen int64) {
	longest := 0
	for _, enc := range encodings {
		if l := len(enc.GetIds()); l > longest {
			longest = l
		}
	}
	if longest == 0 {
		longest = 1
	}

	ids = make([]int64, len(encodings)*longest)
	mask = make([]int64, len(encodings)*longest)
	for i, enc := range encodings {
		offset := i * longest
		for j, v := range enc.GetIds() {
			ids[offset+j] = int64(v)
		}
		for j, v := range enc.GetAttentionMask() {
			mask[offset+j] = int64(v)
		}
	}
	return ids, mask, int64(longest)
}

// extractRows copies a [batch, dim] (or [batch, seq, dim], first token per
// row) float32 output tensor into per-row slices that outlive the tensor.
func extractRows(out ort.Value) ([][]float32, error) {
	tensor, ok := out.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("output tensor is not float32")
	}
	shape := tensor.GetShape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}

	batch := int(shape[0])
	stride := 1
	for _, d := range shape[1:] {
		stride *= int(d)
	}
	dim := int(shape[len(shape)-1])
	data := tensor.GetData()
	if len(data) != batch*stride {
		return nil, fmt.Errorf("output size mismatch: got %d values for shape %v", len(data), shape)
	}

	rows := make([][]float32, batch)
	for i := 0; i < batch; i++ {
		row := make([]float32, dim)
		copy(row, data[i*stride:i*stride+dim])
		rows[i] = row
	}
	return rows, nil
}

// Normalize scales v to unit L2 norm in place and returns it. A zero vector
// is left unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm < 1e-12 {
		return v
	}
	inv := float32(1.0 / norm)
	for i := range v {
		v[i] *= inv
	}
	return v
}

// Mean averages a set of equal-length vectors into a fresh vector.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}
	out := make([]float32, len(vecs[0]))
	for _, v := range vecs {
		for i, x := range v {
			out[i] += x
		}
	}
	inv := float32(1.0 / float64(len(vecs)))
	for i := range out {
		out[i] *= inv
	}
	return out
}
