package handler

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
)

func bytesReader(body []byte) io.Reader {
	if body == nil {
		return nil
	}
	return bytes.NewReader(body)
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
