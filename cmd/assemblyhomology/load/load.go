// Package loadcmder provides the load command: create or update a namespace
// from a load manifest and its sequence metadata file.
package loadcmder

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/config"
	"github.com/scanon/AssemblyHomologyService/pkg/homology"
	"github.com/scanon/AssemblyHomologyService/pkg/logger"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
	"github.com/scanon/AssemblyHomologyService/pkg/service"
)

// Manifest describes one namespace load.
type Manifest struct {
	// ID is the namespace ID to create or update.
	ID string `toml:"id"`

	// LoadID identifies this load. Generated when empty.
	LoadID string `toml:"load_id"`

	// Implementation is the MinHash implementation the sketch database was
	// built with.
	Implementation string `toml:"implementation"`

	// Description is free text describing the namespace.
	Description string `toml:"description"`

	// SketchLocation is the sketch database: a local path or a location the
	// configured sketch store can resolve.
	SketchLocation string `toml:"sketch_location"`

	// MetadataFile is a JSON-lines file with one sequence metadata record
	// per line.
	MetadataFile string `toml:"metadata_file"`
}

type loadCommander struct {
	manifestPath string

	debug  bool
	cfg    *config.Config
	logger *zap.Logger
}

const loadLongDesc string = `Load a namespace and its sequence metadata into the store.

The manifest is a TOML file:

  id = "refseq"
  implementation = "mash"
  description = "NCBI Refseq bacterial assemblies"
  sketch_location = "/data/refseq.msh"
  metadata_file = "/data/refseq-meta.jsonl"

The sketch database is opened with the named implementation to validate it
and record its parameters. The metadata file holds one JSON record per line:

  {"id": "GCF_000010525.1", "source_id": "15/57190/1", "scientific_name": "..."}

Sequence metadata is written before the namespace record so a namespace
never points at a load that isn't fully stored. A load ID is generated when
the manifest doesn't pin one.`

const loadShortDesc string = "Load a namespace into the store"

func NewLoadCmd() *cobra.Command {
	cmder := &loadCommander{}

	cmd := &cobra.Command{
		Use:   "load <manifest.toml>",
		Short: loadShortDesc,
		Long:  loadLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			v, err := config.InitViper(configPath)
			if err != nil {
				return err
			}
			cmder.cfg = config.FromViper(v)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.manifestPath = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd)
		},
	}

	return cmd
}

func (c *loadCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	manifest, err := ParseManifest(c.manifestPath)
	if err != nil {
		return err
	}

	svc, err := service.New(cmd.Context(), c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()

	// Open the sketch database with its implementation to validate it and
	// record its actual parameters.
	impl, err := c.implementation(manifest.Implementation)
	if err != nil {
		return err
	}

	sketches, err := service.NewSketchStore(c.cfg)
	if err != nil {
		return err
	}
	local, err := sketches.Resolve(ctx, manifest.SketchLocation)
	if err != nil {
		return fmt.Errorf("resolving sketch database: %w", err)
	}
	db, err := impl.GetDatabase(ctx, manifest.ID, local)
	if err != nil {
		return fmt.Errorf("opening sketch database: %w", err)
	}

	metas, err := readMetadataFile(manifest.MetadataFile)
	if err != nil {
		return err
	}
	if len(metas) != db.Sequences {
		c.logger.Warn("metadata record count differs from sketch sequence count",
			zap.Int("metadata", len(metas)),
			zap.Int("sketches", db.Sequences),
		)
	}

	loadID := manifest.LoadID
	if loadID == "" {
		loadID = NewLoadID()
	}

	// Metadata first so the namespace record never references a load that
	// isn't fully stored.
	if err := svc.Storage.SaveSequenceMetadata(ctx, manifest.ID, loadID, metas); err != nil {
		return fmt.Errorf("saving sequence metadata: %w", err)
	}

	ns := homology.Namespace{
		ID:          manifest.ID,
		LoadID:      loadID,
		Description: manifest.Description,
		Modified:    time.Now().UTC(),
		Sketch: homology.SketchInfo{
			Implementation: db.Implementation,
			Parameters:     db.Parameters,
			Location:       manifest.SketchLocation,
			Sequences:      db.Sequences,
		},
	}
	if err := svc.Storage.SaveNamespace(ctx, ns); err != nil {
		return fmt.Errorf("saving namespace: %w", err)
	}

	c.logger.Info("namespace loaded",
		zap.String("namespace", manifest.ID),
		zap.String("load_id", loadID),
		zap.Int("sequences", db.Sequences),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "loaded namespace %s (load %s, %d sequences)\n",
		manifest.ID, loadID, db.Sequences)
	return nil
}

func (c *loadCommander) implementation(name string) (minhash.Implementation, error) {
	for _, factory := range service.Factories(c.cfg) {
		if strings.EqualFold(factory.ImplementationName(), name) {
			return factory.GetImplementation(c.cfg.TempDir)
		}
	}
	return nil, fmt.Errorf("no such implementation: %s", name)
}

// ParseManifest reads and validates a load manifest.
func ParseManifest(path string) (*Manifest, error) {
	var manifest Manifest
	if _, err := toml.DecodeFile(path, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if err := homology.ValidateName(manifest.ID); err != nil {
		return nil, fmt.Errorf("manifest id: %w", err)
	}
	if manifest.LoadID != "" {
		if err := homology.ValidateName(manifest.LoadID); err != nil {
			return nil, fmt.Errorf("manifest load_id: %w", err)
		}
	}
	if manifest.Implementation == "" {
		return nil, fmt.Errorf("manifest must name an implementation")
	}
	if manifest.SketchLocation == "" {
		return nil, fmt.Errorf("manifest must name a sketch_location")
	}
	if manifest.MetadataFile == "" {
		return nil, fmt.Errorf("manifest must name a metadata_file")
	}
	return &manifest, nil
}

// NewLoadID generates a fresh load ID: a UUID reduced to name-safe
// characters.
func NewLoadID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// readMetadataFile parses a JSON-lines sequence metadata file.
func readMetadataFile(path string) ([]homology.SequenceMetadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata file: %w", err)
	}
	defer f.Close()

	var metas []homology.SequenceMetadata
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var meta homology.SequenceMetadata
		if err := json.Unmarshal([]byte(text), &meta); err != nil {
			return nil, fmt.Errorf("metadata file line %d: %w", line, err)
		}
		if meta.ID == "" {
			return nil, fmt.Errorf("metadata file line %d: missing sequence id", line)
		}
		metas = append(metas, meta)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	if len(metas) == 0 {
		return nil, fmt.Errorf("metadata file %s contains no records", path)
	}
	return metas, nil
}
