package httpclient

import (
	"io"
	"net/http"
)

func readAll(resp *http.Response) (string, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
