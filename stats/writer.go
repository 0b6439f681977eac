package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
)

type EpisodeRecord struct {
	Run       string  `parquet:"run,dict" json:"run"`
	Phase     string  `parquet:"phase,dict" json:"phase"`
	Episode   int32   `parquet:"episode" json:"episode"`
	Reward    int32   `parquet:"reward" json:"reward"`
	Epsilon   float64 `parquet:"epsilon,optional" json:"epsilon,omitempty"`
	Penalties int32   `parquet:"penalties,optional" json:"penalties,omitempty"`
}

// Episodes flattens the per-episode histories into records. Training records
// carry epsilon, testing records carry penalties.
func Episodes(run string, trainingRewards []int, epsilons []float64, testingRewards, penalties []int) []EpisodeRecord {
	records := make([]EpisodeRecord, 0, len(trainingRewards)+len(testingRewards))
	for i, r := range trainingRewards {
		record := EpisodeRecord{Run: run, Phase: string(Training), Episode: int32(i), Reward: int32(r)}
		if i < len(epsilons) {
			record.Epsilon = epsilons[i]
		}
		records = append(records, record)
	}
	for i, r := range testingRewards {
		record := EpisodeRecord{Run: run, Phase: string(Testing), Episode: int32(i), Reward: int32(r)}
		if i < len(penalties) {
			record.Penalties = int32(penalties[i])
		}
		records = append(records, record)
	}
	return records
}

type Writer struct {
	runID   string
	baseDir string
}

// NewWriter creates a run directory under root named by the current timestamp
// and the start of the run id. An existing directory is never reused.
func NewWriter(root string) (*Writer, error) {
	runID := uuid.NewString()
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, timestamp+"-"+runID[:8])
	err := os.MkdirAll(root, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	err = os.Mkdir(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	return &Writer{
		runID:   runID,
		baseDir: baseDir,
	}, nil
}

func (w *Writer) RunID() string {
	return w.runID
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteEpisodes(records []EpisodeRecord) error {
	header := []string{"run", "phase", "episode", "reward", "epsilon", "penalties"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Run,
			record.Phase,
			strconv.Itoa(int(record.Episode)),
			strconv.Itoa(int(record.Reward)),
			strconv.FormatFloat(record.Epsilon, 'f', 6, 64),
			strconv.Itoa(int(record.Penalties)),
		})
	}
	return w.WriteTable("episodes.csv", header, rows)
}

// WriteTable writes a CSV file with the given header into the run directory.
func (w *Writer) WriteTable(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(w.baseDir, name))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteParquet stores the records zstd-compressed. The file is written next to
// its destination first and renamed into place.
func (w *Writer) WriteParquet(records []EpisodeRecord) error {
	path := filepath.Join(w.baseDir, "episodes.parquet")
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	err := parquet.WriteFile(tmpPath, records,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("run", w.runID),
	)
	if err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write episodes parquet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move episodes parquet: %w", err)
	}
	return nil
}

// WriteSummary stores v as indented JSON in qu_stats.json.
func (w *Writer) WriteSummary(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	path := filepath.Join(w.baseDir, "qu_stats.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// WriteMetrics dumps the gathered metrics in the Prometheus text format.
func (w *Writer) WriteMetrics(g prometheus.Gatherer) error {
	path := filepath.Join(w.baseDir, "metrics.prom")
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
