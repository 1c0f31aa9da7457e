package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestSaveRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock)
	require.NoError(t, err)

	started := time.Unix(1700000000, 0).UTC()
	finished := started.Add(2 * time.Minute)

	rec := RunRecord{
		ID:          "run-uuid",
		StartedAt:   started,
		FinishedAt:  finished,
		Query:       map[string]string{"keywords": "podatek", "date_from": "2025-01-01"},
		CasesFound:  12,
		Downloaded:  11,
		Analyzed:    9,
		TokensUsed:  4200,
		ArchivePath: "/out/cbosa_judgments_20250101_120000.zip",
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(
			rec.ID,
			rec.StartedAt,
			rec.FinishedAt,
			[]byte(`{"keywords":"podatek","date_from":"2025-01-01"}`),
			rec.CasesFound,
			rec.Downloaded,
			rec.DownloadFailed,
			rec.Analyzed,
			rec.AnalysisFailed,
			rec.AnalysisSkipped,
			rec.TokensUsed,
			rec.ArchivePath,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRunRequiresID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock)
	require.NoError(t, err)

	err = s.SaveRun(context.Background(), RunRecord{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveJudgmentInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s, err := NewWithPool(mock)
	require.NoError(t, err)

	now := time.Unix(1700000100, 0).UTC()
	rec := JudgmentRecord{
		RunID:       "run-uuid",
		Signature:   "I SA/Gl 81/25",
		CaseURL:     "https://orzeczenia.nsa.gov.pl/doc/ABC123",
		Filename:    "I_SA_Gl_81_25.pdf",
		Format:      "pdf",
		Summary:     "Biuletyn...",
		RetrievedAt: now,
	}

	mock.ExpectExec("INSERT INTO judgments").
		WithArgs(
			rec.RunID,
			rec.Signature,
			rec.CaseURL,
			rec.Filename,
			rec.Format,
			rec.Summary,
			rec.RetrievedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveJudgment(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil)
	require.Error(t, err)
}
