package gateway

import "fmt"

// Kind classifies the outcome of a completion call.
type Kind int

const (
	KindOK Kind = iota
	KindEmpty
	// KindTimedOut means the caller's deadline expired.
	KindTimedOut
	KindCanceled
	KindUnauthorized
	KindForbidden
	KindRateLimited
	KindHTTPError
	// KindTransportTimeout means a connection-level timeout fired while the
	// caller's deadline was still running.
	KindTransportTimeout
	KindUnreachable
	KindFailure
)

var kindNames = map[Kind]string{
	KindOK:               "ok",
	KindEmpty:            "empty",
	KindTimedOut:         "timed_out",
	KindCanceled:         "canceled",
	KindUnauthorized:     "unauthorized",
	KindForbidden:        "forbidden",
	KindRateLimited:      "rate_limited",
	KindHTTPError:        "http_error",
	KindTransportTimeout: "transport_timeout",
	KindUnreachable:      "unreachable",
	KindFailure:          "failure",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Result is the outcome of one completion call. Reply is only meaningful
// for KindOK. StatusCode is set whenever a response was received.
type Result struct {
	Kind       Kind
	Reply      string
	StatusCode int
	Err        error
}

// OK reports whether the model produced a reply.
func (r Result) OK() bool { return r.Kind == KindOK }

// Message returns the text to show the user: the reply itself, or a canned
// description of the failure.
func (r Result) Message() string {
	switch r.Kind {
	case KindOK:
		return r.Reply
	case KindEmpty:
		return "抱歉，AI暂时无法回复。"
	case KindTimedOut:
		return "响应超时"
	case KindCanceled:
		return "请求已取消"
	case KindUnauthorized:
		return "API密钥无效，请检查配置"
	case KindForbidden:
		return "API访问被拒绝，请检查权限"
	case KindRateLimited:
		return "请求过于频繁，请稍后再试"
	case KindHTTPError:
		return fmt.Sprintf("请求失败：HTTP %d", r.StatusCode)
	case KindTransportTimeout:
		return "网络连接超时，请检查网络设置"
	case KindUnreachable:
		return "无法连接到服务器，请检查网络连接"
	default:
		msg := "未知错误"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return "发生错误：" + msg
	}
}
