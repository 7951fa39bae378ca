package config

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/folospace/go-orm-union/orm"
	"github.com/joho/godotenv"
	"github.com/mcuadros/go-defaults"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

const (
	envPrefix  = "ORM_UNION"
	configName = ".orm-union"
	dotEnvFile = ".env"
)

type ConnectionConfig struct {
	//mysql, sqlite or postgres
	Driver string `mapstructure:"driver"`
	Dsn    string `mapstructure:"dsn"`
	//read replicas, queries pick one at random
	ReadDsn []string `mapstructure:"read_dsn"`
}

type Config struct {
	//keyed by connection alias, lower cased
	Connections map[string]ConnectionConfig `mapstructure:"connections"`
	Union       orm.UnionConfig             `mapstructure:"union"`
}

// Load reads file, or .orm-union.yaml from the working dir, the home dir or
// ~/.config/orm-union when file is empty. ORM_UNION_DRIVER and ORM_UNION_DSN,
// from the environment or a .env file, override the default connection.
func Load(fs afero.Fs, file string) (*Config, error) {
	if fs == nil {
		fs = AppFs
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "orm-union"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	defaults.SetDefaults(&cfg.Union)

	dotEnv, err := loadDotEnv(fs)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) string {
		if val, ok := os.LookupEnv(envPrefix + "_" + key); ok {
			return val
		}
		return dotEnv[envPrefix+"_"+key]
	}

	if dsn := lookup("DSN"); dsn != "" {
		if cfg.Connections == nil {
			cfg.Connections = make(map[string]ConnectionConfig)
		}
		conn := cfg.Connections[orm.DefaultConnection]
		conn.Dsn = dsn
		if driver := lookup("DRIVER"); driver != "" {
			conn.Driver = driver
		}
		cfg.Connections[orm.DefaultConnection] = conn
	}

	return cfg, nil
}

//.env values without touching the process environment
func loadDotEnv(fs afero.Fs) (map[string]string, error) {
	f, err := fs.Open(dotEnvFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	env, err := godotenv.Parse(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse "+dotEnvFile)
	}
	return env, nil
}

// Open opens every configured connection and registers it under its alias
func Open(cfg *Config) error {
	for alias, c := range cfg.Connections {
		d, ok := orm.DialectByName(c.Driver)
		if !ok {
			return errors.Errorf("connection %s: unknown driver %q", alias, c.Driver)
		}

		var dbs []*sql.DB
		for _, dsn := range append([]string{c.Dsn}, c.ReadDsn...) {
			db, err := orm.Open(d.DriverName(), dsn)
			if err != nil {
				for _, opened := range dbs {
					_ = opened.Close()
				}
				return errors.Wrapf(err, "connection %s", alias)
			}
			dbs = append(dbs, db)
		}

		if err := orm.RegisterConnection(alias, d, dbs...); err != nil {
			return errors.Wrapf(err, "connection %s", alias)
		}
	}
	orm.SetDefaultUnionConfig(cfg.Union)
	return nil
}
