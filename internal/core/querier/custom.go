package querier

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/weisyn/wasmsim/pkg/interfaces/simulation"
	"github.com/weisyn/wasmsim/pkg/types"
)

// NewFetchHandler 构造外部HTTP抓取的自定义查询处理器
//
// 合约发出 {"fetch": {"url": ..., "method"?: ..., "body"?: ...,
// "headers"?: [...]}} 形式的自定义查询时，处理器同步执行HTTP
// 请求，并将响应体以base64字符串的JSON编码返回（合约侧再行解码）。
//
// 抓取在引擎锁内执行，阻塞窗口由timeout限定
func NewFetchHandler(timeout time.Duration) simulation.CustomQueryHandler {
	client := &http.Client{Timeout: timeout}

	return func(request []byte) ([]byte, error) {
		var q types.FetchQuery
		if err := json.Unmarshal(request, &q); err != nil {
			return nil, fmt.Errorf("invalid custom query: %w", err)
		}
		if q.Fetch == nil {
			return nil, fmt.Errorf("%w: unknown custom query", ErrUnsupportedQuery)
		}
		return doFetch(client, q.Fetch)
	}
}

func doFetch(client *http.Client, f *types.FetchRequest) ([]byte, error) {
	method := http.MethodGet
	if f.Method != nil && *f.Method != "" {
		method = strings.ToUpper(*f.Method)
	}

	var body io.Reader
	if f.Body != nil {
		body = strings.NewReader(*f.Body)
	}

	req, err := http.NewRequest(method, f.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	for _, line := range f.Headers {
		// "Name: Value" 形式，解析失败的行直接跳过
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.URL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read fetch response: %w", err)
	}

	// 合约侧约定以base64解码字节再反序列化
	encoded := base64.StdEncoding.EncodeToString(raw)
	return types.MustMarshalJSON(encoded), nil
}
