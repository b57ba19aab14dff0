package config

import "time"

// PushConfig controls delivery of push notifications through the queue.
type PushConfig struct {
    Enabled   bool
    Queue     string
    Endpoint  string // Expo push API
    AccessKey string // optional Expo access token
    Timeout   time.Duration
    Prefetch  int
}

// LoadPushConfig reads PUSH_* variables.
func LoadPushConfig() PushConfig {
    return PushConfig{
        Enabled:   envBool("PUSH_ENABLED", true),
        Queue:     envStr("PUSH_QUEUE", "push.notifications"),
        Endpoint:  envStr("PUSH_ENDPOINT", "https://exp.host/--/api/v2/push/send"),
        AccessKey: envStr("EXPO_ACCESS_TOKEN", ""),
        Timeout:   envDur("PUSH_TIMEOUT", 10*time.Second),
        Prefetch:  envInt("PUSH_PREFETCH", 50),
    }
}

// RealtimeConfig tunes the websocket hub.
type RealtimeConfig struct {
    PingInterval   time.Duration
    WriteTimeout   time.Duration
    SendBuffer     int
    MaxMessageSize int64
    AllowedOrigins []string
}

// LoadRealtimeConfig reads WS_* variables. Idle channels stay open for as long
// as pongs keep arriving.
func LoadRealtimeConfig() RealtimeConfig {
    return RealtimeConfig{
        PingInterval:   envDur("WS_PING_INTERVAL", 30*time.Second),
        WriteTimeout:   envDur("WS_WRITE_TIMEOUT", 10*time.Second),
        SendBuffer:     envInt("WS_SEND_BUFFER", 64),
        MaxMessageSize: int64(envInt("WS_MAX_MESSAGE_BYTES", 4096)),
        AllowedOrigins: splitList(envStr("WS_ALLOWED_ORIGINS", "*")),
    }
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
    Enabled          bool
    ReminderSchedule string
    ReminderLeadDays int
}

// LoadSchedulerConfig reads SCHEDULER_* variables.
func LoadSchedulerConfig() SchedulerConfig {
    return SchedulerConfig{
        Enabled:          envBool("SCHEDULER_ENABLED", true),
        ReminderSchedule: envStr("PAYMENT_REMINDER_SCHEDULE", "@hourly"),
        ReminderLeadDays: envInt("PAYMENT_REMINDER_LEAD_DAYS", 3),
    }
}

// NotifyConfig bounds the background fan-out of one notification to many
// recipients.
type NotifyConfig struct {
    FanoutWorkers int
    FanoutTimeout time.Duration
}

// LoadNotifyConfig reads NOTIFY_* variables.
func LoadNotifyConfig() NotifyConfig {
    return NotifyConfig{
        FanoutWorkers: envInt("NOTIFY_FANOUT_WORKERS", 8),
        FanoutTimeout: envDur("NOTIFY_FANOUT_TIMEOUT", 2*time.Minute),
    }
}
