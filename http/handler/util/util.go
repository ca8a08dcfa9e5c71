package util

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ezshield/logrelay/encoding/json"

	"github.com/labstack/echo/v4"
)

// ShouldBindJSON binds the body data of the request to the given object. An error is
// returned if the body data is not valid JSON or the validation of the unmarshalled
// data failed. An empty body is not an error if allowEmpty is set.
func ShouldBindJSON(c echo.Context, obj interface{}, allowEmpty bool) error {
	req := c.Request()

	if req.ContentLength == 0 {
		if allowEmpty {
			return c.Validate(obj)
		}

		return fmt.Errorf("request doesn't contain any content")
	}

	ctype := req.Header.Get(echo.HeaderContentType)

	if !strings.HasPrefix(ctype, echo.MIMEApplicationJSON) {
		return fmt.Errorf("request doesn't contain JSON content")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, obj); err != nil {
		return err
	}

	return c.Validate(obj)
}

func PathWildcardParam(c echo.Context) string {
	return "/" + PathParam(c, "*")
}

func PathParam(c echo.Context, name string) string {
	param := c.Param(name)

	param, err := url.PathUnescape(param)
	if err != nil {
		return ""
	}

	return param
}

func DefaultQuery(c echo.Context, name, defValue string) string {
	param := c.QueryParam(name)

	if len(param) == 0 {
		return defValue
	}

	return param
}
