package request

import "net/http"

// Response is a constructible response message. A non-nil Response produced
// by an authenticator or firewall listener terminates the chain.
type Response struct {
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// NewResponse builds an empty response with the given status code.
func NewResponse(status int) *Response {
	return &Response{
		Status: status,
		Header: http.Header{},
	}
}

// Redirect builds a 302 response pointing at location.
func Redirect(location string) *Response {
	resp := NewResponse(http.StatusFound)
	resp.Header.Set("Location", location)
	return resp
}

// AddCookie attaches a Set-Cookie header to the response.
func (resp *Response) AddCookie(c *http.Cookie) {
	resp.Cookies = append(resp.Cookies, c)
}

// Write flushes the response to the underlying writer.
func (resp *Response) Write(w http.ResponseWriter) error {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	for _, c := range resp.Cookies {
		http.SetCookie(w, c)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, err := w.Write(resp.Body)
		return err
	}
	return nil
}
