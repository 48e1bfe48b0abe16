package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// supportedExtensions maps recognized file extensions to the source
// format recorded on each row.
var supportedExtensions = map[string]string{
	".csv":  "csv",
	".tsv":  "tsv",
	".json": "json",
}

// Loader discovers supported files in a dataset directory and parses
// them into canonical rows. Reads are not cached: every Load rescans
// the directory, trading freshness for simplicity at small static
// dataset scale.
type Loader struct {
	dir string
	log *zap.Logger
}

// NewLoader creates a loader over the given directory.
func NewLoader(dir string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{dir: dir, log: log}
}

// Dir returns the dataset directory path.
func (l *Loader) Dir() string {
	return l.dir
}

// Load parses every supported file in the directory, sorted by file
// name. A directory that cannot be listed yields an empty result. A
// parse failure in one file is logged and that file is excluded from
// both the rows and the available-files listing; it never aborts the
// scan. A cancelled context aborts the load with no partial result.
func (l *Loader) Load(ctx context.Context) ([]Row, []string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		l.log.Warn("trend data directory not listable",
			zap.String("dir", l.dir),
			zap.Error(err))
		return nil, nil, nil
	}

	var rows []Row
	var files []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		format, ok := supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		parsed, err := parseFile(filepath.Join(l.dir, entry.Name()), entry.Name(), format)
		if err != nil {
			l.log.Warn("skipping unparsable trend file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		rows = append(rows, parsed...)
		files = append(files, entry.Name())
	}
	return rows, files, nil
}

func parseFile(path, name, format string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch format {
	case "csv":
		return parseTabular(data, ',', name, "csv")
	case "tsv":
		return parseTabular(data, '\t', name, "tsv")
	default:
		return parseJSON(data, name)
	}
}

// parseTabular parses delimited records. Blank lines are stripped and
// lines beginning with # are comments, except that a comment line
// containing the delimiter is adopted as the header when no header has
// been seen yet: some vendors ship files with the header row commented
// out.
func parseTabular(data []byte, delimiter rune, sourceFile, sourceFormat string) ([]Row, error) {
	var headerLine string
	var dataLines []string
	for _, line := range strings.Split(string(data), "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" {
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			content := strings.TrimSpace(strings.TrimLeft(stripped, "#"))
			if headerLine == "" && strings.ContainsRune(content, delimiter) {
				headerLine = content
			}
			continue
		}
		dataLines = append(dataLines, stripped)
	}
	if len(dataLines) == 0 {
		return nil, nil
	}

	lines := dataLines
	if headerLine != "" {
		lines = append([]string{headerLine}, dataLines...)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, nil // header only
	}

	header := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		raw := make(map[string]any, len(header))
		for i, column := range header {
			if i < len(record) {
				raw[strings.TrimSpace(column)] = record[i]
			}
		}
		rows = append(rows, Normalize(raw, sourceFile, sourceFormat))
	}
	return rows, nil
}

// parseJSON handles the three supported JSON shapes: a top-level array
// of row objects, a single flat object, or an object with a regions
// map whose entries supply default fields beneath any top_queries
// rows. Explicit row fields win over region defaults.
func parseJSON(data []byte, sourceFile string) ([]Row, error) {
	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	var rows []Row
	switch value := payload.(type) {
	case []any:
		for _, entry := range value {
			if obj, ok := entry.(map[string]any); ok {
				rows = append(rows, Normalize(obj, sourceFile, "json"))
			}
		}
	case map[string]any:
		regions, ok := value["regions"].(map[string]any)
		if !ok {
			rows = append(rows, Normalize(value, sourceFile, "json"))
			break
		}
		week := value["week"]
		for _, name := range slices.Sorted(maps.Keys(regions)) {
			regionPayload, ok := regions[name].(map[string]any)
			if !ok {
				continue
			}
			defaults := map[string]any{
				"region":         name,
				"week":           week,
				"channel_checks": regionPayload["channel_checks"],
			}
			if topQueries, ok := regionPayload["top_queries"].([]any); ok {
				for _, entry := range topQueries {
					if obj, ok := entry.(map[string]any); ok {
						rows = append(rows, Normalize(merge(defaults, obj), sourceFile, "json"))
					}
				}
			} else {
				rows = append(rows, Normalize(merge(defaults, regionPayload), sourceFile, "json"))
			}
		}
	}
	return rows, nil
}

func merge(defaults, raw map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(raw))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range raw {
		merged[k] = v
	}
	return merged
}
