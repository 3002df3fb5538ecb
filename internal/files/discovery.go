package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gapminder/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// sourceExtensions are the loadable table formats.
var sourceExtensions = map[string]bool{".csv": true, ".xlsx": true}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindSources lists the CSV and XLSX files in dir, sorted by name.
func (d *Discovery) FindSources(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !sourceExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// indicatorPrefixes maps published file name prefixes to indicators.
var indicatorPrefixes = []struct {
	prefix    string
	indicator domain.Indicator
}{
	{"population", domain.IndicatorPopulation},
	{"life_expectancy", domain.IndicatorLifeExpectancy},
	{"income", domain.IndicatorIncome},
	{"hdi", domain.IndicatorHDI},
	{"human_development", domain.IndicatorHDI},
}

// MatchIndicator guesses the indicator of a source from its file name.
func MatchIndicator(name string) (domain.Indicator, bool) {
	base := strings.ToLower(SourceName(name))
	for _, p := range indicatorPrefixes {
		if strings.HasPrefix(base, p.prefix) {
			return p.indicator, true
		}
	}
	return "", false
}

// MatchSources assigns discovered files to indicators. When several files
// match one indicator the first by name wins.
func (d *Discovery) MatchSources(dir string) (map[domain.Indicator]FileInfo, error) {
	files, err := d.FindSources(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[domain.Indicator]FileInfo, len(domain.CanonicalIndicators))
	for _, f := range files {
		ind, ok := MatchIndicator(f.Name)
		if !ok {
			continue
		}
		if _, taken := out[ind]; !taken {
			out[ind] = f
		}
	}
	return out, nil
}

// SourceName returns the file name without directory or extension. It names
// the value column of the reshaped table.
func SourceName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
