package config

import (
	"bufio"
	"bytes"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	apperrors "github.com/Dicklesworthstone/loadwatch/internal/errors"
	"github.com/Dicklesworthstone/loadwatch/internal/model"
)

// Configuration file keys.
const (
	KeyDebug         = "is_debug"
	KeyJoinable      = "is_joinable"
	KeyThreadName    = "thread_name"
	KeyIntervalS     = "interval_s"
	KeyIntervalMS    = "interval_ms"
	KeyCPUName       = "cpu_name"
	KeyCPULoadType   = "cpu_load_type"
	KeyCPUThreshold  = "cpu_threshold"
	KeyInterfaceName = "interface_name"
)

// flag that shadows each file key
var fileKeyFlags = map[string]string{
	KeyDebug:         "debug",
	KeyJoinable:      "joinable",
	KeyThreadName:    "thread-name",
	KeyIntervalS:     "interval",
	KeyIntervalMS:    "interval",
	KeyCPUName:       "cpu",
	KeyCPULoadType:   "load-type",
	KeyCPUThreshold:  "threshold",
	KeyInterfaceName: "interface",
}

// ReadFile returns the raw key/value pairs of a configuration file. Files
// ending in .yaml or .yml are decoded as a YAML mapping, anything else as
// key=value lines where # starts a comment. Lines that are not a valid
// key=value pair are returned in rejected rather than failing the file.
func ReadFile(path string) (values map[string]string, rejected []string, err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		values, err = readYAML(path)
		return values, nil, err
	}
	return readKeyValue(path)
}

func readKeyValue(path string) (map[string]string, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	values := make(map[string]string)
	var rejected []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := parseLine(line)
		if !ok {
			rejected = append(rejected, line)
			continue
		}
		values[k] = v
	}
	if err := sc.Err(); err != nil {
		return nil, nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	return values, rejected, nil
}

// parseLine hands one key=value line to godotenv. The value is single-quoted
// first, so it is taken literally: no $NAME expansion, no inline comments.
// A value containing a single quote or a backslash cannot be quoted that way;
// only its key goes through godotenv and the value is kept verbatim.
func parseLine(line string) (string, string, bool) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 || strings.ContainsRune(line[:idx], ':') {
		return "", "", false
	}
	value := strings.TrimSpace(line[idx+1:])
	verbatim := strings.ContainsAny(value, `'\`)
	src := line[:idx] + "='" + value + "'"
	if verbatim {
		src = line[:idx] + "=''"
	}
	parsed, err := godotenv.Unmarshal(src)
	if err != nil || len(parsed) != 1 {
		return "", "", false
	}
	for k, v := range parsed {
		if verbatim {
			v = value
		}
		return k, v, true
	}
	return "", "", false
}

func readYAML(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", path)
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, pkgerrors.Wrapf(err, "decode %s", path)
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			values[k] = ""
			continue
		}
		values[k] = fmt.Sprint(v)
	}
	return values, nil
}

// loadFile merges cfg.ConfigFile into cfg. A missing file is only an error
// when it was named explicitly.
func loadFile(cfg *Config, fs *flag.FlagSet, explicit bool) error {
	values, rejected, err := ReadFile(cfg.ConfigFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			cfg.warnf("no configuration file %s, reverted to defaults", cfg.ConfigFile)
			return nil
		}
		return apperrors.NewConfigError("configuration file: %v", err)
	}
	for _, line := range rejected {
		cfg.warnf("unknown config parameter: %q", line)
	}
	applyFile(cfg, fs, values)
	return nil
}

func applyFile(cfg *Config, fs *flag.FlagSet, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	secs := int64(cfg.Interval / time.Second)
	millis := int64(cfg.Interval % time.Second / time.Millisecond)
	intervalSet := false

	for _, k := range keys {
		v := strings.TrimSpace(values[k])
		flagName, known := fileKeyFlags[k]
		if !known {
			cfg.warnf("unknown config parameter: %q = %q", k, v)
			continue
		}
		if isFlagSet(fs, flagName) {
			continue
		}
		switch k {
		case KeyDebug:
			cfg.Debug = v == "true"
		case KeyJoinable:
			cfg.Joinable = v == "true"
		case KeyThreadName:
			cfg.ThreadName = v
		case KeyIntervalS, KeyIntervalMS:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				cfg.warnf("ignoring %s = %q: %v", k, v, err)
				continue
			}
			if k == KeyIntervalS {
				secs = n
			} else {
				millis = n
			}
			intervalSet = true
		case KeyCPUName:
			cfg.CPUName = v
		case KeyCPULoadType:
			n, err := strconv.Atoi(v)
			if err != nil {
				cfg.warnf("invalid CPU load type %q, defaulted to %d", v, int(model.DefaultLoadType))
				cfg.LoadType = model.DefaultLoadType
				continue
			}
			cfg.LoadType = checkLoadType(cfg, n)
		case KeyCPUThreshold:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				cfg.warnf("ignoring %s = %q: %v", k, v, err)
				continue
			}
			cfg.Threshold = f
		case KeyInterfaceName:
			cfg.Interface = v
		}
	}
	if intervalSet {
		cfg.Interval = time.Duration(secs)*time.Second + time.Duration(millis)*time.Millisecond
	}
}
