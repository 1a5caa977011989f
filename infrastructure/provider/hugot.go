package provider

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
)

const hugotBatchMax = 16

// ortSingleton holds the process-wide session and one pipeline per model
// directory. ORT allows a single active session per process and is not
// thread-safe, so the mutex covers both setup and inference.
var ortSingleton struct {
	mu        sync.Mutex
	session   *hugot.Session
	pipelines map[string]*pipelines.FeatureExtractionPipeline
}

// HugotEmbedding runs a sentence-transformers ONNX model in process.
//
// The model is looked up in two places, in order:
//  1. <modelDir>/<model name with "/" replaced by "_">, or any subdirectory
//     of it, containing tokenizer.json.
//  2. The model compiled into the binary (build tag embed_model), extracted
//     into modelDir on first use.
type HugotEmbedding struct {
	modelDir string
	model    string
}

// NewHugotEmbedding creates a HugotEmbedding for model under modelDir.
func NewHugotEmbedding(modelDir, model string) *HugotEmbedding {
	return &HugotEmbedding{modelDir: modelDir, model: model}
}

// ModelDirName maps a model name to its directory name.
func ModelDirName(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}

// Available reports whether model files can be found.
func (h *HugotEmbedding) Available() bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := h.diskModelPath()
	return err == nil
}

func (h *HugotEmbedding) pipeline() (*pipelines.FeatureExtractionPipeline, error) {
	modelPath, err := h.resolveModelPath()
	if err != nil {
		return nil, err
	}

	if p, ok := ortSingleton.pipelines[modelPath]; ok {
		return p, nil
	}

	if ortSingleton.session == nil {
		session, err := newHugotSession()
		if err != nil {
			return nil, fmt.Errorf("create hugot session: %w", err)
		}
		ortSingleton.session = session
		ortSingleton.pipelines = map[string]*pipelines.FeatureExtractionPipeline{}
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embeddings-" + filepath.Base(modelPath),
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	}
	p, err := hugot.NewPipeline(ortSingleton.session, config)
	if err != nil {
		return nil, fmt.Errorf("create feature extraction pipeline for %s: %w", h.model, err)
	}
	ortSingleton.pipelines[modelPath] = p
	return p, nil
}

func (h *HugotEmbedding) resolveModelPath() (string, error) {
	if diskPath, err := h.diskModelPath(); err == nil {
		return diskPath, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("model %s not found under %s and no embedded model compiled in (build with -tags embed_model)", h.model, h.modelDir)
	}
	if err := os.MkdirAll(h.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	return extractEmbeddedModel(embeddedModelFS, h.modelDir, ModelDirName(h.model))
}

func hasTokenizer(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "tokenizer.json"))
	return err == nil
}

// diskModelPath returns <modelDir>/<name> or its first subdirectory that
// holds a tokenizer.json.
func (h *HugotEmbedding) diskModelPath() (string, error) {
	root := filepath.Join(h.modelDir, ModelDirName(h.model))
	if hasTokenizer(root) {
		return root, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", fmt.Errorf("read model directory %s: %w", root, err)
	}
	for _, entry := range entries {
		if entry.IsDir() && hasTokenizer(filepath.Join(root, entry.Name())) {
			return filepath.Join(root, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no tokenizer.json found under %s", root)
}

// extractEmbeddedModel writes models/<name> from the embedded filesystem to
// targetDir/<name>.
func extractEmbeddedModel(embedded fs.FS, targetDir, name string) (string, error) {
	modelFS, err := fs.Sub(embedded, filepath.ToSlash(filepath.Join("models", name)))
	if err != nil {
		return "", fmt.Errorf("access embedded model %s: %w", name, err)
	}
	if _, err := fs.Stat(modelFS, "tokenizer.json"); err != nil {
		return "", fmt.Errorf("model %s is not embedded: %w", name, err)
	}

	modelPath := filepath.Join(targetDir, name)
	if hasTokenizer(modelPath) {
		return modelPath, nil
	}

	err = fs.WalkDir(modelFS, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		target := filepath.Join(modelPath, path)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(modelFS, path)
		if err != nil {
			return fmt.Errorf("read embedded file %s: %w", path, err)
		}
		return os.WriteFile(target, data, 0o644)
	})
	if err != nil {
		return "", fmt.Errorf("extract embedded model: %w", err)
	}
	return modelPath, nil
}

// Capacity returns the maximum number of texts per Embed call.
func (h *HugotEmbedding) Capacity() int { return hugotBatchMax }

// Embed generates embeddings for the given texts using the local model.
func (h *HugotEmbedding) Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error) {
	texts := req.Texts()
	if len(texts) == 0 {
		return NewEmbeddingResponse([][]float64{}, NewUsage(0, 0)), nil
	}
	if len(texts) > hugotBatchMax {
		return EmbeddingResponse{}, fmt.Errorf("embed: %d texts exceeds capacity %d", len(texts), hugotBatchMax)
	}
	if err := ctx.Err(); err != nil {
		return EmbeddingResponse{}, err
	}

	ortSingleton.mu.Lock()
	defer ortSingleton.mu.Unlock()

	p, err := h.pipeline()
	if err != nil {
		return EmbeddingResponse{}, NewProviderError("local", 0, "initialize model "+h.model, err)
	}
	result, err := p.RunPipeline(texts)
	if err != nil {
		return EmbeddingResponse{}, NewProviderError("local", 0, "run embedding pipeline", err)
	}

	embeddings := make([][]float64, len(result.Embeddings))
	for i, vec32 := range result.Embeddings {
		vec64 := make([]float64, len(vec32))
		for j, v := range vec32 {
			vec64[j] = float64(v)
		}
		embeddings[i] = vec64
	}
	return NewEmbeddingResponse(embeddings, NewUsage(0, 0)), nil
}

var _ Embedder = (*HugotEmbedding)(nil)
