package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/domain"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest", ingestCmd.Use)
}

func TestIngestCmd_PrintsReport(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &stubIngestService{
		report: driving.IngestReport{
			RunID:              "run-42",
			DocumentsProcessed: 3,
			ChunksCreated:      11,
		},
	}

	out, err := execute(t, "ingest")

	require.NoError(t, err)
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "3 document(s) processed")
	assert.Contains(t, out, "11 chunk(s) indexed")
	assert.NotContains(t, out, "failed")
}

func TestIngestCmd_ListsFailures(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &stubIngestService{
		report: driving.IngestReport{
			RunID:              "run-43",
			DocumentsProcessed: 1,
			ChunksCreated:      2,
			Failures: []driving.ChunkFailure{
				{DocumentID: 7, ChunkIndex: 3, Err: "provider timeout"},
			},
		},
	}

	out, err := execute(t, "ingest")

	require.NoError(t, err)
	assert.Contains(t, out, "1 chunk(s) failed")
	assert.Contains(t, out, "document 7 chunk 3: provider timeout")
}

func TestIngestCmd_MissingProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	ingestService = &stubIngestService{
		err: domain.ErrConfigurationMissing,
	}

	_, err := execute(t, "ingest")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
}

func TestIngestCmd_NoServiceConfigured(t *testing.T) {
	prev := ingestService
	ingestService = nil
	defer func() { ingestService = prev }()

	_, err := execute(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
