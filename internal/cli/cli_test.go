package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/gazette/internal/config"
	"github.com/aretw0/gazette/internal/testutils"
	"github.com/aretw0/gazette/pkg/adapters/csv"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/persistence/middleware"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	return Options{
		ConfigPath: filepath.Join(dir, "missing.yaml"),
		Mock:       true,
		LogCSV:     filepath.Join(dir, "pipeline_log.csv"),
		LogJSONL:   filepath.Join(dir, "events.jsonl"),
		StoreDir:   filepath.Join(dir, "sessions"),
	}
}

func testIO(in string) (IO, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return IO{In: strings.NewReader(in), Out: &out, Err: &errOut}, &out, &errOut
}

func TestParseAdditionalAnswers(t *testing.T) {
	answers, err := ParseAdditionalAnswers(`{"audience":"投資人","focus":["營收","毛利"]}`)
	require.NoError(t, err)
	assert.Equal(t, "投資人", answers["audience"])
	assert.Len(t, answers["focus"], 2)

	none, err := ParseAdditionalAnswers("")
	require.NoError(t, err)
	assert.Nil(t, none)

	for _, bad := range []string{`{`, `["a"]`, `"text"`} {
		_, err := ParseAdditionalAnswers(bad)
		assert.ErrorIs(t, err, domain.ErrValidation, bad)
	}
}

func TestApplyParameterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddParameterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"--news-type", "科技",
		"--max-retries", "0",
		"--non-interactive",
		"--additional-answers-json", `{"k":"v"}`,
	}))

	base := domain.DefaultParameters()
	base.Tone = "輕鬆"
	p, err := ApplyParameterFlags(fs, base)
	require.NoError(t, err)
	assert.Equal(t, "科技", p.NewsType)
	assert.Equal(t, 0, p.MaxRetries)
	assert.True(t, p.NonInteractive)
	assert.Equal(t, "輕鬆", p.Tone, "unset flags keep the configured value")
	assert.Equal(t, map[string]any{"k": "v"}, p.AdditionalAnswers)
}

func TestApplyParameterFlags_Invalid(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddParameterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--word-limit", "0"}))

	_, err := ApplyParameterFlags(fs, domain.DefaultParameters())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gazette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  csv: from-file.csv\n  level: info\n"), 0644))

	cfg, err := LoadConfig(Options{ConfigPath: path, Mock: true, Debug: true, LogCSV: "flag.csv"})
	require.NoError(t, err)
	assert.Equal(t, config.ProviderMock, cfg.Backend.Provider)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "flag.csv", cfg.Log.CSV)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	b, err := NewBackend(ctx, config.BackendConfig{Provider: config.ProviderMock})
	require.NoError(t, err)
	models, err := b.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"mock"}, models)

	_, err = NewBackend(ctx, config.BackendConfig{Provider: config.ProviderOllama})
	require.NoError(t, err)

	_, err = NewBackend(ctx, config.BackendConfig{Provider: "openai"})
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	for _, kind := range []string{config.StoreFile, config.StoreMemory} {
		s, err := OpenStore(config.StoreConfig{Kind: kind, Dir: t.TempDir()})
		require.NoError(t, err, kind)
		assert.Nil(t, s.Locker)
		assert.NoError(t, s.Close())
	}

	_, err := OpenStore(config.StoreConfig{Kind: "s3"})
	assert.Error(t, err)
}

func TestLoadDocuments(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"news/a.txt": testutils.SampleNews})
	corpus, _ := testutils.SetupCorpus(t, map[string]string{"b.md": "---\ntone: 輕鬆\n---\n第二則新聞"})

	docs, err := LoadDocuments(context.Background(), Inputs{RawData: "直接輸入", Files: []string{dir}, Corpus: corpus}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, domain.SourceCLI, docs[0].Source)
	assert.Equal(t, testutils.SampleNews, docs[1].Text)
	assert.Equal(t, "b", docs[2].Source)
	assert.Equal(t, "輕鬆", docs[2].Overrides.Tone)

	_, err = LoadDocuments(context.Background(), Inputs{}, nil)
	assert.ErrorIs(t, err, domain.ErrNoInput)
}

func TestRunDocuments_WritesEverySink(t *testing.T) {
	opts := testOptions(t)
	stdio, out, errOut := testIO("")
	app, err := Setup(context.Background(), opts, stdio)
	require.NoError(t, err)

	docs := []domain.Document{
		{Source: "a.txt", Text: "第一則"},
		{Source: "b.txt", Text: "第二則"},
	}
	err = RunDocuments(context.Background(), app, docs, domain.DefaultParameters())
	require.NoError(t, err)
	require.NoError(t, app.Close())

	assert.Contains(t, errOut.String(), "not a terminal")
	assert.Contains(t, out.String(), "a.txt")
	assert.Contains(t, out.String(), "b.txt")

	rows, err := csv.ReadFile(opts.LogCSV)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	events, err := os.ReadFile(opts.LogJSONL)
	require.NoError(t, err)
	assert.NotEmpty(t, events)

	ids, err := os.ReadDir(opts.StoreDir)
	require.NoError(t, err)
	assert.NotEmpty(t, ids)
}

func TestRunDocuments_JSONReport(t *testing.T) {
	opts := testOptions(t)
	opts.JSON = true
	stdio, out, _ := testIO("")
	app, err := Setup(context.Background(), opts, stdio)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	params := domain.DefaultParameters()
	params.NonInteractive = true
	err = RunDocuments(context.Background(), app, []domain.Document{{Text: "內容"}}, params)
	require.NoError(t, err)

	var msg struct {
		Type    string         `json:"type"`
		Payload domain.Outcome `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &msg))
	assert.Equal(t, domain.ActionSessionResult, msg.Type)
	assert.True(t, msg.Payload.Succeeded())
}

func TestRunDocuments_ScriptedQuitFails(t *testing.T) {
	opts := testOptions(t)
	opts.JSON = true
	stdio, out, _ := testIO("\"q\"\n")
	app, err := Setup(context.Background(), opts, stdio)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	err = RunDocuments(context.Background(), app, []domain.Document{{Text: "內容"}}, domain.DefaultParameters())
	assert.ErrorIs(t, err, ErrSessionsFailed)
	assert.Contains(t, out.String(), `"message":"user_abort"`)
}

func TestOpenStore_SealsAndMasks(t *testing.T) {
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, middleware.KeySize))
	cfg := config.StoreConfig{Kind: config.StoreFile, Dir: dir, EncryptionKey: key, MaskKeys: []string{"phone"}}

	s, err := OpenStore(cfg)
	require.NoError(t, err)
	params := domain.DefaultParameters()
	params.AdditionalAnswers = map[string]any{"phone": "0912-345-678"}
	require.NoError(t, s.Save(context.Background(), &domain.SessionDetail{SessionID: "session_1", Parameters: params}))

	raw, err := os.ReadFile(filepath.Join(dir, "session_1.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sealed"`)
	assert.NotContains(t, string(raw), "0912-345-678")

	loaded, err := s.Load(context.Background(), "session_1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Parameters.AdditionalAnswers["phone"])

	_, err = OpenStore(config.StoreConfig{Kind: config.StoreFile, Dir: dir, EncryptionKey: "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
