package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/data", cfg.Storage.DataRoot)
	assert.Equal(t, "/data/jobs", cfg.JobsDir())
	assert.Equal(t, "redis", cfg.Queue.Backend)
	assert.Equal(t, "auto", cfg.ASR.Device)
	assert.Equal(t, "auto", cfg.ASR.ComputeType)
	assert.Equal(t, "large-v3", cfg.ASR.Model)
	assert.Equal(t, 5, cfg.ASR.BeamSize)
	assert.Equal(t, "pyannote/speaker-diarization-3.1", cfg.Diarization.Model)
	assert.True(t, bool(cfg.LLM.Enabled))
	assert.Equal(t, "http://ollama:11434", cfg.LLM.OllamaBaseURL)
	assert.Equal(t, "qwen2.5:14b", cfg.LLM.OllamaModel)
	assert.Equal(t, 180*time.Second, cfg.OllamaTimeout())
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATA_ROOT", "/tmp/todo")
	t.Setenv("ASR_DEVICE", "cuda")
	t.Setenv("ASR_BEAM_SIZE", "2")
	t.Setenv("HUGGINGFACE_TOKEN", "hf_x")
	t.Setenv("OLLAMA_TIMEOUT_SEC", "30")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/todo/jobs", cfg.JobsDir())
	assert.Equal(t, "cuda", cfg.ASR.Device)
	assert.Equal(t, 2, cfg.ASR.BeamSize)
	assert.Equal(t, 30*time.Second, cfg.OllamaTimeout())

	cred, name := cfg.DiarizationCredential()
	assert.Equal(t, "hf_x", cred)
	assert.Equal(t, "HUGGINGFACE_TOKEN", name)
}

func TestFlexBool(t *testing.T) {
	for value, want := range map[string]bool{
		"1": true, "true": true, "YES": true, " on ": true,
		"0": false, "false": false, "no": false, "": false, "off": false,
	} {
		var b FlexBool
		require.NoError(t, b.Decode(value))
		assert.Equal(t, want, bool(b), value)
	}
}

func TestFromEnv_LegacyLLMToggle(t *testing.T) {
	t.Setenv("TODO_USE_OLLAMA", "no")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.False(t, bool(cfg.LLM.Enabled))

	t.Setenv("TODO_USE_LLM", "yes")
	cfg, err = FromEnv()
	require.NoError(t, err)
	assert.True(t, bool(cfg.LLM.Enabled))
}

func TestValidate_CrossChecks(t *testing.T) {
	t.Run("assemblyai asr needs key", func(t *testing.T) {
		t.Setenv("ASR_BACKEND", "assemblyai")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.ErrorContains(t, cfg.Validate(), "ASSEMBLYAI_API_KEY")
	})

	t.Run("groq needs key", func(t *testing.T) {
		t.Setenv("LLM_PROVIDER", "groq")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.ErrorContains(t, cfg.Validate(), "GROQ_API_KEY")

		cfg.LLM.Enabled = false
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown device rejected", func(t *testing.T) {
		t.Setenv("ASR_DEVICE", "tpu")
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Error(t, cfg.Validate())
	})

	t.Run("assemblyai diarization uses assemblyai key", func(t *testing.T) {
		t.Setenv("DIARIZATION_BACKEND", "assemblyai")
		t.Setenv("ASSEMBLYAI_API_KEY", "aai")
		cfg, err := FromEnv()
		require.NoError(t, err)
		cred, name := cfg.DiarizationCredential()
		assert.Equal(t, "aai", cred)
		assert.Equal(t, "ASSEMBLYAI_API_KEY", name)
	})
}
