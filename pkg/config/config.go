package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radovskyb/watcher"
	"gopkg.in/yaml.v3"

	"github.com/forest33/rawlink/pkg/logger"
	"github.com/forest33/rawlink/pkg/structs"
)

const (
	tagDefault = "default"

	// EnvConfigPath overrides the configuration file location
	EnvConfigPath = "RAWLINK_CONFIG"

	watchInterval = time.Second
)

type Config struct {
	path      string
	data      interface{}
	log       *logger.Logger
	observers []func(interface{})
	watcher   *watcher.Watcher
	sync.Mutex
}

// New reads the YAML file into cfg and fills unset fields from default tags.
// A missing file is not an error: cfg then holds only defaults.
func New(configFileName, configFileDir string, cfg interface{}, log *logger.Logger) (*Config, error) {
	path, ok := os.LookupEnv(EnvConfigPath)
	if !ok {
		if configFileDir == "" {
			ex, err := os.Executable()
			if err != nil {
				return nil, err
			}
			configFileDir = filepath.Dir(ex)
		}
		path = filepath.Join(configFileDir, configFileName)
	}

	if err := load(path, cfg); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewDefault()
	}

	return &Config{
		path:      path,
		data:      cfg,
		log:       log,
		observers: make([]func(interface{}), 0, 1),
	}, nil
}

func load(path string, cfg interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return Parse(cfg)
}

func (c *Config) Save() error {
	c.Lock()
	defer c.Unlock()

	buf, err := yaml.Marshal(c.data)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, buf, 0664)
}

func (c *Config) GetPath() string {
	return c.path
}

// AddObserver registers f to be called with the reloaded configuration
// each time the file changes.
func (c *Config) AddObserver(f func(interface{})) error {
	c.Lock()
	defer c.Unlock()

	if c.watcher == nil {
		if err := c.startWatcher(); err != nil {
			return err
		}
	}
	c.observers = append(c.observers, f)
	return nil
}

// Close stops watching the file
func (c *Config) Close() {
	c.Lock()
	defer c.Unlock()

	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}

func (c *Config) startWatcher() error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)
	if err := w.Add(c.path); err != nil {
		return err
	}
	c.watcher = w

	go func() {
		if err := w.Start(watchInterval); err != nil {
			c.log.Error().Err(err).Str("path", c.path).Msg("failed to start watching config file")
		}
	}()

	go func() {
		for {
			select {
			case <-w.Event:
				c.reload()
			case err := <-w.Error:
				c.log.Error().Err(err).Msg("error on watching config file")
			case <-w.Closed:
				return
			}
		}
	}()

	return nil
}

func (c *Config) reload() {
	c.Lock()
	defer c.Unlock()

	c.log.Info().Str("path", c.path).Msg("config file changed")
	if err := load(c.path, c.data); err != nil {
		c.log.Error().Err(err).Str("path", c.path).Msg("failed to reload config file")
		return
	}
	for _, f := range c.observers {
		f(c.data)
	}
}

// Parse fills zero fields of target from their default tags, recursing into
// nested struct pointers. A zero field without default is an error.
func Parse(target interface{}) error {
	ref := reflect.Indirect(reflect.ValueOf(target))
	for i := 0; i < ref.Type().NumField(); i++ {
		structField := ref.Type().Field(i)
		fieldValue := ref.Field(i)

		if !structField.IsExported() || isSet(structField, &fieldValue) {
			continue
		}

		if def, ok := structField.Tag.Lookup(tagDefault); ok {
			if err := setValue(structField, &fieldValue, def); err != nil {
				return fmt.Errorf("%s.%s: %w", ref.Type().Name(), structField.Name, err)
			}
			continue
		}

		switch structField.Type.Kind() {
		case reflect.Ptr, reflect.Slice:
			if err := setValue(structField, &fieldValue, ""); err != nil {
				return err
			}
		case reflect.Bool:
		default:
			return fmt.Errorf("required configuration parameter is not specified - %s.%s", ref.Type().Name(), structField.Name)
		}
	}

	return nil
}

func isSet(structField reflect.StructField, field *reflect.Value) bool {
	switch structField.Type.Kind() {
	case reflect.Ptr:
		return structField.Type.Elem().Kind() == reflect.Bool && !field.IsNil()
	case reflect.Slice:
		return false
	default:
		return !field.IsZero()
	}
}

func setValue(structField reflect.StructField, field *reflect.Value, value string) error {
	switch structField.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(strings.ToLower(value) == "true")
	case reflect.Ptr:
		if structField.Type.Elem().Kind() == reflect.Bool {
			field.Set(reflect.ValueOf(structs.Ref(strings.ToLower(value) == "true")))
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return Parse(field.Interface())
	case reflect.Slice:
		if len(value) > 0 && field.Len() == 0 {
			values := strings.Split(value, ",")
			sl := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, val := range values {
				sl.Index(i).Set(reflect.ValueOf(val))
			}
			field.Set(sl)
			return nil
		}
		for i := 0; i < field.Len(); i++ {
			if field.Index(i).Kind() != reflect.Ptr {
				continue
			}
			if err := Parse(field.Index(i).Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}
