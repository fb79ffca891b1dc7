package bridge

import (
	"os"
	"strconv"
	"time"

	"github.com/magiconair/properties"

	"github.com/corebridge/corebridge/cothread"
)

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
func formatInt(i int) string       { return strconv.Itoa(i) }

// VehicleCounts is how many cars of each type a side should generate.
type VehicleCounts struct {
	Normal    int
	Sport     int
	Emergency int
}

func (c VehicleCounts) Total() int { return c.Normal + c.Sport + c.Emergency }

// Config is the simulator's typed configuration, parsed from an external
// properties file per spec §6 ("implementations parse into a typed
// record — format is not part of the hard core").
type Config struct {
	Flow       FlowPolicy
	Scheduling cothread.Policy

	RoadLength float64
	BaseSpeed  float64

	EquityWindow     int
	SignalInterval   time.Duration
	MaxEmergencyWait time.Duration
	TimeQuantum      time.Duration

	Left  VehicleCounts
	Right VehicleCounts
}

// defaultConfig mirrors the original simulator's built-in defaults, used
// whenever the properties file is missing or a key is absent.
func defaultConfig() *Config {
	return &Config{
		Flow:             FIFO,
		Scheduling:       cothread.FirstComeFirstServed,
		RoadLength:       10,
		BaseSpeed:        10,
		EquityWindow:     2,
		SignalInterval:   2 * time.Second,
		MaxEmergencyWait: 2 * time.Second,
		TimeQuantum:      1 * time.Second,
		Left:             VehicleCounts{Normal: 2},
		Right:            VehicleCounts{Normal: 2},
	}
}

// LoadOrDefault loads configuration from a properties file at path. If the
// file does not exist, a default configuration is written to path (so a
// fresh checkout behaves like the original's auto-create-with-defaults
// config.txt) and returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg := defaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if writeErr := cfg.writeDefaults(path); writeErr != nil {
			return nil, writeErr
		}
		return cfg, nil
	}

	p, err := properties.LoadFile(path, properties.UTF8)
	if err != nil {
		return nil, err
	}

	flowName := p.GetString("flow_policy", cfg.Flow.String())
	flow, err := ParseFlowPolicy(flowName)
	if err != nil {
		return nil, err
	}
	cfg.Flow = flow

	schedName := p.GetString("scheduler_policy", schedulingName(cfg.Scheduling))
	sched, err := parseScheduling(schedName)
	if err != nil {
		return nil, err
	}
	cfg.Scheduling = sched

	cfg.RoadLength = p.GetFloat64("road_length", cfg.RoadLength)
	cfg.BaseSpeed = p.GetFloat64("base_speed", cfg.BaseSpeed)
	cfg.EquityWindow = p.GetInt("equity_window", cfg.EquityWindow)
	cfg.SignalInterval = time.Duration(p.GetFloat64("signal_interval_seconds", cfg.SignalInterval.Seconds())*1000) * time.Millisecond
	cfg.MaxEmergencyWait = time.Duration(p.GetFloat64("max_emergency_wait_seconds", cfg.MaxEmergencyWait.Seconds())*1000) * time.Millisecond
	cfg.TimeQuantum = time.Duration(p.GetFloat64("time_quantum_seconds", cfg.TimeQuantum.Seconds())*1000) * time.Millisecond

	cfg.Left.Normal = p.GetInt("left_normal", cfg.Left.Normal)
	cfg.Left.Sport = p.GetInt("left_sport", cfg.Left.Sport)
	cfg.Left.Emergency = p.GetInt("left_emergency", cfg.Left.Emergency)
	cfg.Right.Normal = p.GetInt("right_normal", cfg.Right.Normal)
	cfg.Right.Sport = p.GetInt("right_sport", cfg.Right.Sport)
	cfg.Right.Emergency = p.GetInt("right_emergency", cfg.Right.Emergency)

	return cfg, nil
}

func (cfg *Config) writeDefaults(path string) error {
	p := properties.NewProperties()
	set := func(key, val string) {
		_, _, _ = p.Set(key, val)
	}
	set("flow_policy", cfg.Flow.String())
	set("scheduler_policy", schedulingName(cfg.Scheduling))
	set("road_length", formatFloat(cfg.RoadLength))
	set("base_speed", formatFloat(cfg.BaseSpeed))
	set("equity_window", formatInt(cfg.EquityWindow))
	set("signal_interval_seconds", formatFloat(cfg.SignalInterval.Seconds()))
	set("max_emergency_wait_seconds", formatFloat(cfg.MaxEmergencyWait.Seconds()))
	set("time_quantum_seconds", formatFloat(cfg.TimeQuantum.Seconds()))
	set("left_normal", formatInt(cfg.Left.Normal))
	set("left_sport", formatInt(cfg.Left.Sport))
	set("left_emergency", formatInt(cfg.Left.Emergency))
	set("right_normal", formatInt(cfg.Right.Normal))
	set("right_sport", formatInt(cfg.Right.Sport))
	set("right_emergency", formatInt(cfg.Right.Emergency))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = p.WriteComment(f, "#", properties.UTF8)
	return err
}

func schedulingName(p cothread.Policy) string {
	switch p {
	case cothread.RoundRobin:
		return "RR"
	case cothread.Priority:
		return "PRIORITY"
	case cothread.ShortestJobFirst:
		return "SJF"
	case cothread.FirstComeFirstServed:
		return "FCFS"
	case cothread.EarliestDeadlineFirst:
		return "REALTIME"
	default:
		return "FCFS"
	}
}

func parseScheduling(s string) (cothread.Policy, error) {
	switch s {
	case "RR":
		return cothread.RoundRobin, nil
	case "PRIORITY":
		return cothread.Priority, nil
	case "SJF":
		return cothread.ShortestJobFirst, nil
	case "FCFS":
		return cothread.FirstComeFirstServed, nil
	case "REALTIME":
		return cothread.EarliestDeadlineFirst, nil
	default:
		return 0, ErrUnknownSchedulingPolicy
	}
}
