// Package retcode 后台与商城接口沿用的旧业务码，前端按 code 判断结果
package retcode

const (
	SUCCESS         = 1
	INVALID         = -1
	DB_SAVE_ERROR   = -2
	DB_READ_ERROR   = -3
	NOT_EXISTS      = -8
	JSON_PARSE_FAIL = -9
	EMPTY_PARAMS    = -12
	DATA_EXISTS     = -13
	AUTH_ERROR      = -14
	PARAM_INVALID   = -995
	SESSION_TIMEOUT = -997
	UNKNOWN         = -998
)

var messages = map[int]string{
	SUCCESS:         "success",
	INVALID:         "非法操作",
	DB_SAVE_ERROR:   "数据存储失败",
	DB_READ_ERROR:   "数据读取失败",
	NOT_EXISTS:      "不存在",
	JSON_PARSE_FAIL: "JSON数据格式错误",
	EMPTY_PARAMS:    "缺少必要参数",
	DATA_EXISTS:     "数据已经存在",
	AUTH_ERROR:      "权限认证失败",
	PARAM_INVALID:   "数据类型非法",
	SESSION_TIMEOUT: "SESSION过期",
	UNKNOWN:         "未知错误",
}

// Message 未登记的码返回 UNKNOWN 的文案
func Message(code int) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return messages[UNKNOWN]
}
