package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WorkflowConfig tunes the workflow engine without a redeploy.
type WorkflowConfig struct {
	// InvoiceDueDays is added to the generation date to produce due_date.
	InvoiceDueDays int `mapstructure:"invoiceDueDays"`
	// RoundingEpsilon is the currency tolerance used when caller-supplied
	// invoice totals are checked against recomputed ones.
	RoundingEpsilon float64 `mapstructure:"roundingEpsilon"`
	// BookingBurst and BookingPerMinute bound booking submissions per owner.
	BookingBurst     int `mapstructure:"bookingBurst"`
	BookingPerMinute int `mapstructure:"bookingPerMinute"`
}

func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		InvoiceDueDays:   14,
		RoundingEpsilon:  0.005,
		BookingBurst:     5,
		BookingPerMinute: 10,
	}
}

// WorkflowConfigHolder exposes the current WorkflowConfig and hot-reloads
// it when workflow.yml changes on disk.
type WorkflowConfigHolder struct {
	current atomic.Value // holds WorkflowConfig
}

func NewWorkflowConfigHolder() (*WorkflowConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("workflow")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/motorlane")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOTORLANE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultWorkflowConfig()
		v.SetDefault("workflow.invoiceDueDays", defaults.InvoiceDueDays)
		v.SetDefault("workflow.roundingEpsilon", defaults.RoundingEpsilon)
		v.SetDefault("workflow.bookingBurst", defaults.BookingBurst)
		v.SetDefault("workflow.bookingPerMinute", defaults.BookingPerMinute)
	}

	var cfg WorkflowConfig
	if err := v.UnmarshalKey("workflow", &cfg); err != nil {
		return nil, err
	}
	if err := validateWorkflowConfig(cfg); err != nil {
		return nil, err
	}

	holder := &WorkflowConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated WorkflowConfig
		if err := v.UnmarshalKey("workflow", &updated); err != nil {
			log.Printf("[workflow-config] reload failed: %v", err)
			return
		}
		if err := validateWorkflowConfig(updated); err != nil {
			log.Printf("[workflow-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[workflow-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *WorkflowConfigHolder) Current() WorkflowConfig {
	if h == nil {
		return DefaultWorkflowConfig()
	}
	if cfg, ok := h.current.Load().(WorkflowConfig); ok {
		return cfg
	}
	return DefaultWorkflowConfig()
}

func validateWorkflowConfig(cfg WorkflowConfig) error {
	if cfg.InvoiceDueDays <= 0 {
		return errors.New("workflow config: invoiceDueDays must be positive")
	}
	if cfg.RoundingEpsilon <= 0 || cfg.RoundingEpsilon >= 1 {
		return errors.New("workflow config: roundingEpsilon must be in (0, 1)")
	}
	if cfg.BookingBurst < 0 || cfg.BookingPerMinute < 0 {
		return errors.New("workflow config: booking limits must not be negative")
	}
	return nil
}
