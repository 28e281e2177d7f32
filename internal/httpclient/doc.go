// Package httpclient builds the HTTP client and requests shared by every
// execution of a run.
//
// [NewClient] returns a pooled client whose redirect policy fails with
// [metrics.ErrRedirectPolicy] once the configured limit is exceeded:
//
//	client := httpclient.NewClient(httpclient.Options{
//		Timeout:      30 * time.Second,
//		MaxRedirects: 10,
//	})
//
// [NewRequestBuilder] validates the target once; [RequestBuilder.Build] then
// creates a GET request per execution carrying the configured headers, the
// User-Agent, the correlation header and, when enabled, W3C trace context:
//
//	builder, err := httpclient.NewRequestBuilder(cfg, correlationID)
//	if err != nil {
//		return err
//	}
//	req, err := builder.Build(ctx)
package httpclient
