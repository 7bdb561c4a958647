package types

import "fmt"

// ErrorType API 错误类型
type ErrorType string

const (
	// 4xx 客户端错误
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error" // 400 - 请求格式或内容错误
	ErrorTypeAuthentication ErrorType = "authentication_error"  // 401 - API Key 问题
	ErrorTypePermission     ErrorType = "permission_error"      // 403 - API Key 权限不足
	ErrorTypeNotFound       ErrorType = "not_found_error"       // 404 - 资源未找到
	ErrorTypeRateLimit      ErrorType = "rate_limit_error"      // 429 - 达到速率限制

	// 5xx 服务器错误
	ErrorTypeAPI        ErrorType = "api_error"        // 500 - 内部服务器错误
	ErrorTypeOverloaded ErrorType = "overloaded_error" // 529 - API 临时过载

	// 本地错误
	ErrorTypeDecode ErrorType = "decode_error" // 响应流无法解析
)

// ProviderError Provider 错误
type ProviderError struct {
	Type       ErrorType // 错误类型
	Provider   string    // Provider 名称
	StatusCode int       // HTTP 状态码
	Message    string    // 错误消息
	Err        error     // 原始错误
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s][%s] %s: %v", e.Provider, e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s][%s] %s", e.Provider, e.Type, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetryable 判断错误是否可重试
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeAPI, ErrorTypeOverloaded:
		return true
	default:
		return false
	}
}

// NewProviderError 创建 Provider 错误
func NewProviderError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Type:     ErrorTypeAPI,
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}

// NewDecodeError 创建流解析错误
func NewDecodeError(provider, message string, err error) *ProviderError {
	return &ProviderError{
		Type:     ErrorTypeDecode,
		Provider: provider,
		Message:  message,
		Err:      err,
	}
}
