package orchestrate

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/pkg/a2a"
)

func TestConvertPartText(t *testing.T) {
	got := ConvertPart(context.Background(), a2a.NewTextPart("hello"), &memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, "hello", got)
}

func TestConvertPartData(t *testing.T) {
	got := ConvertPart(context.Background(), a2a.NewDataPart(map[string]any{"k": "v"}), &memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, map[string]any{"k": "v"}, got)
}

func TestConvertPartFileSavesArtifact(t *testing.T) {
	store := &memArtifacts{}
	actions := &Actions{}
	part := a2a.Part{
		Kind: a2a.PartKindFile,
		File: &a2a.FileContent{
			Name:     "plan.png",
			MimeType: "image/png",
			Bytes:    base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		},
	}

	got := ConvertPart(context.Background(), part, store, actions, zap.NewNop())
	assert.Equal(t, map[string]any{"artifact-file-id": "plan.png"}, got)
	assert.Equal(t, []byte("png-bytes"), store.saved["plan.png"])
	assert.True(t, actions.Escalate)
	assert.True(t, actions.SkipSummarization)
}

func TestConvertPartFileBadBase64(t *testing.T) {
	part := a2a.Part{
		Kind: a2a.PartKindFile,
		File: &a2a.FileContent{Name: "broken.bin", Bytes: "%%%not-base64%%%"},
	}
	got := ConvertPart(context.Background(), part, &memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, "Error processing file broken.bin: invalid data.", got)
}

func TestConvertPartFileStorageFailure(t *testing.T) {
	part := a2a.Part{
		Kind: a2a.PartKindFile,
		File: &a2a.FileContent{
			Name:  "big.bin",
			Bytes: base64.StdEncoding.EncodeToString([]byte("data")),
		},
	}
	got := ConvertPart(context.Background(), part, &memArtifacts{fail: true}, &Actions{}, zap.NewNop())
	assert.Equal(t, "Error processing file big.bin: storage failure.", got)
}

func TestConvertPartFileWithoutContent(t *testing.T) {
	got := ConvertPart(context.Background(), a2a.Part{Kind: a2a.PartKindFile}, &memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, "File part is present, but has no file content.", got)

	got = ConvertPart(context.Background(),
		a2a.Part{Kind: a2a.PartKindFile, File: &a2a.FileContent{Name: "empty.txt"}},
		&memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, "File empty.txt available, but no content.", got)
}

func TestConvertPartUnknownKind(t *testing.T) {
	got := ConvertPart(context.Background(), a2a.Part{Kind: "video"}, &memArtifacts{}, &Actions{}, zap.NewNop())
	assert.Equal(t, "Unknown part type: video", got)
}

func TestConvertPartsDropsNils(t *testing.T) {
	parts := []a2a.Part{
		a2a.NewTextPart("one"),
		a2a.NewDataPart(map[string]any{"n": float64(2)}),
	}
	got := ConvertParts(context.Background(), parts, &memArtifacts{}, &Actions{}, zap.NewNop())
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0])
}
