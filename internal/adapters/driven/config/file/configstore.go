package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/driftline/docsync/internal/core/domain"
)

// settingsFile is the TOML document persisted on disk. It mirrors
// domain.AppSettings with toml tags so hand-edited files stay readable.
type settingsFile struct {
	Embedding embeddingSection `toml:"embedding"`
	LLM       llmSection       `toml:"llm"`
	Chunking  chunkingSection  `toml:"chunking"`
	Queue     queueSection     `toml:"queue"`
	Storage   storageSection   `toml:"storage"`
}

type embeddingSection struct {
	Provider          string `toml:"provider"`
	Model             string `toml:"model"`
	MultilingualModel string `toml:"multilingual_model"`
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
}

type llmSection struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

type chunkingSection struct {
	Strategy  string `toml:"strategy"`
	ChunkSize int    `toml:"chunk_size"`
	Overlap   int    `toml:"overlap"`
}

type queueSection struct {
	Workers     int `toml:"workers"`
	MaxAttempts int `toml:"max_attempts"`
}

type storageSection struct {
	DataDir     string `toml:"data_dir"`
	DownloadDir string `toml:"download_dir"`
	VectorDir   string `toml:"vector_dir"`
	UploadDir   string `toml:"upload_dir"`
}

// SettingsStore persists application settings as a TOML file.
// Missing fields fall back to defaults on load, so partial files and
// files from older versions keep working.
type SettingsStore struct {
	mu       sync.RWMutex
	filePath string
	settings domain.AppSettings
}

// NewSettingsStore creates a settings store rooted at configDir.
// If configDir is empty, defaults to ~/.docsync.
func NewSettingsStore(configDir string) (*SettingsStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".docsync")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	s := &SettingsStore{
		filePath: filepath.Join(configDir, "config.toml"),
		settings: domain.DefaultAppSettings(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Settings returns a copy of the current settings.
func (s *SettingsStore) Settings() domain.AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the settings and persists them immediately.
func (s *SettingsStore) Update(settings domain.AppSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	return s.save()
}

// Load reads settings from disk. A missing file leaves defaults in
// place; a malformed file is an error rather than a silent reset.
func (s *SettingsStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.settings = domain.DefaultAppSettings()
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var doc settingsFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	s.settings = mergeWithDefaults(doc)
	return nil
}

// Save persists the current settings to disk.
func (s *SettingsStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes settings to the TOML file (caller must hold lock).
func (s *SettingsStore) save() error {
	doc := toDocument(s.settings)

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// API keys may be present, keep the file private.
	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path returns the configuration file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// mergeWithDefaults builds AppSettings from a parsed file, filling
// unset numeric and strategy fields from defaults.
func mergeWithDefaults(doc settingsFile) domain.AppSettings {
	settings := domain.DefaultAppSettings()

	settings.Embedding = domain.EmbeddingSettings{
		Provider:          domain.AIProvider(doc.Embedding.Provider),
		Model:             doc.Embedding.Model,
		MultilingualModel: doc.Embedding.MultilingualModel,
		BaseURL:           doc.Embedding.BaseURL,
		APIKey:            doc.Embedding.APIKey,
	}
	settings.LLM = domain.LLMSettings{
		Provider: domain.AIProvider(doc.LLM.Provider),
		Model:    doc.LLM.Model,
		BaseURL:  doc.LLM.BaseURL,
		APIKey:   doc.LLM.APIKey,
	}

	if doc.Chunking.Strategy != "" {
		settings.Chunking.Strategy = doc.Chunking.Strategy
	}
	if doc.Chunking.ChunkSize > 0 {
		settings.Chunking.ChunkSize = doc.Chunking.ChunkSize
	}
	if doc.Chunking.Overlap > 0 {
		settings.Chunking.Overlap = doc.Chunking.Overlap
	}

	if doc.Queue.Workers > 0 {
		settings.Queue.Workers = doc.Queue.Workers
	}
	if doc.Queue.MaxAttempts > 0 {
		settings.Queue.MaxAttempts = doc.Queue.MaxAttempts
	}

	settings.Storage = domain.StorageSettings{
		DataDir:     doc.Storage.DataDir,
		DownloadDir: doc.Storage.DownloadDir,
		VectorDir:   doc.Storage.VectorDir,
		UploadDir:   doc.Storage.UploadDir,
	}

	return settings
}

// toDocument converts AppSettings into the persisted form.
func toDocument(settings domain.AppSettings) settingsFile {
	return settingsFile{
		Embedding: embeddingSection{
			Provider:          settings.Embedding.Provider.String(),
			Model:             settings.Embedding.Model,
			MultilingualModel: settings.Embedding.MultilingualModel,
			BaseURL:           settings.Embedding.BaseURL,
			APIKey:            settings.Embedding.APIKey,
		},
		LLM: llmSection{
			Provider: settings.LLM.Provider.String(),
			Model:    settings.LLM.Model,
			BaseURL:  settings.LLM.BaseURL,
			APIKey:   settings.LLM.APIKey,
		},
		Chunking: chunkingSection{
			Strategy:  settings.Chunking.Strategy,
			ChunkSize: settings.Chunking.ChunkSize,
			Overlap:   settings.Chunking.Overlap,
		},
		Queue: queueSection{
			Workers:     settings.Queue.Workers,
			MaxAttempts: settings.Queue.MaxAttempts,
		},
		Storage: storageSection{
			DataDir:     settings.Storage.DataDir,
			DownloadDir: settings.Storage.DownloadDir,
			VectorDir:   settings.Storage.VectorDir,
			UploadDir:   settings.Storage.UploadDir,
		},
	}
}
