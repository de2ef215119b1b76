package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// Market represents the backtested market.
	Market string
	// Timeframe represents the candle timeframe being replayed.
	Timeframe string
	// Start is the inclusive start of the replayed range.
	Start string
	// End is the inclusive end of the replayed range.
	End string
	// Source selects the candle source, one of file, exchange or warehouse.
	Source string
	// DataFilepath is the filepath to the historic candle data.
	DataFilepath string
	// StrategyParamsFilepath is the filepath to the strategy parameters.
	StrategyParamsFilepath string
	// InitialCapital is the starting capital for the run.
	InitialCapital float64
	// PositionSize is the fraction of capital committed per position.
	PositionSize float64
	// Commission is the commission rate applied on position close.
	Commission float64
	// RiskFreeRate is the annual risk free rate for risk-adjusted metrics.
	RiskFreeRate float64
	// DBEndpoint is the rqlite endpoint for run persistence, optional.
	DBEndpoint string
	// DBUser is the rqlite user.
	DBUser string
	// DBPass is the rqlite user pass.
	DBPass string
	// WarehouseAddr is the clickhouse connection address.
	WarehouseAddr string
	// WarehouseDatabase is the clickhouse database.
	WarehouseDatabase string
	// WarehouseTable is the clickhouse candle table.
	WarehouseTable string
	// WarehouseUser is the clickhouse user.
	WarehouseUser string
	// WarehousePass is the clickhouse user pass.
	WarehousePass string

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("market cannot be an empty string"))
	}
	if cfg.Start == "" {
		errs = errors.Join(errs, fmt.Errorf("start of the replayed range cannot be an empty string"))
	}
	if cfg.End == "" {
		errs = errors.Join(errs, fmt.Errorf("end of the replayed range cannot be an empty string"))
	}
	if cfg.StrategyParamsFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy params filepath cannot be an empty string"))
	}

	switch cfg.Source {
	case "file":
		if cfg.DataFilepath == "" {
			errs = errors.Join(errs, fmt.Errorf("data filepath cannot be an empty string"))
		}
	case "exchange":
	case "warehouse":
		if cfg.WarehouseAddr == "" {
			errs = errors.Join(errs, fmt.Errorf("warehouse address cannot be an empty string"))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown candle source: %s", cfg.Source))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	// Fields keep their preset value when neither the environment nor the
	// command line provides one.
	switch val.Elem().Kind() {
	case reflect.String:
		def := *value.(*string)
		if defValue != "" {
			def = defValue
		}
		flag.StringVar(value.(*string), name, def, usage)
	case reflect.Bool:
		def := *value.(*bool)
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		def := *value.(*int)
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		def := *value.(*float64)
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"market", &cfg.Market, "the backtested market"},
		{"timeframe", &cfg.Timeframe, "the replayed candle timeframe"},
		{"start", &cfg.Start, "the inclusive start of the replayed range"},
		{"end", &cfg.End, "the inclusive end of the replayed range"},
		{"source", &cfg.Source, "the candle source, one of file, exchange or warehouse"},
		{"datafilepath", &cfg.DataFilepath, "the historic candle data filepath"},
		{"strategyparamsfilepath", &cfg.StrategyParamsFilepath, "the strategy params filepath"},
		{"initialcapital", &cfg.InitialCapital, "the starting capital for the run"},
		{"positionsize", &cfg.PositionSize, "the fraction of capital committed per position"},
		{"commission", &cfg.Commission, "the commission rate applied on position close"},
		{"riskfreerate", &cfg.RiskFreeRate, "the annual risk free rate"},
		{"dbendpoint", &cfg.DBEndpoint, "the rqlite endpoint for run persistence"},
		{"dbuser", &cfg.DBUser, "the rqlite user"},
		{"dbpass", &cfg.DBPass, "the rqlite user pass"},
		{"warehouseaddr", &cfg.WarehouseAddr, "the clickhouse connection address"},
		{"warehousedatabase", &cfg.WarehouseDatabase, "the clickhouse database"},
		{"warehousetable", &cfg.WarehouseTable, "the clickhouse candle table"},
		{"warehouseuser", &cfg.WarehouseUser, "the clickhouse user"},
		{"warehousepass", &cfg.WarehousePass, "the clickhouse user pass"},
	}
	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
