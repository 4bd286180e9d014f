package model

import "time"

// log_format ui_short '$remote_addr  $remote_user $http_x_real_ip [$time_local] "$request" '
//                     '$status $body_bytes_sent "$http_referer" '
//                     '"$http_user_agent" "$http_x_forwarded_for" "$http_X_REQUEST_ID" "$http_X_RB_USER" '
//                     '$request_time';

// LogEntry is one parsed access-log line in the ui_short format.
type LogEntry struct {
	RemoteAddr        string  `json:"remote_addr"`
	RemoteUser        string  `json:"remote_user"`
	HTTPXRealIP       string  `json:"http_x_real_ip"`
	TimeLocal         string  `json:"time_local"`
	Request           string  `json:"request"`
	Status            string  `json:"status"`
	BodyBytesSent     string  `json:"body_bytes_sent"`
	HTTPReferer       string  `json:"http_referer"`
	HTTPUserAgent     string  `json:"http_user_agent"`
	HTTPXForwardedFor string  `json:"http_x_forwarded_for"`
	HTTPXRequestID    string  `json:"http_x_request_id"`
	HTTPXRBUser       string  `json:"http_x_rb_user"`
	RequestTime       float64 `json:"request_time"`
}

// LogFile is a discovered access-log file, with the date taken from the
// YYYYMMDD suffix of its name.
type LogFile struct {
	Path string    `json:"path"`
	Date time.Time `json:"date"`
}
