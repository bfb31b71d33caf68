package response

import (
	stdjson "encoding/json"
	"errors"
	"io"
	log "log/slog"
	"net/http"
	"strconv"

	"Townhall/internal/api/dto"
	"Townhall/internal/pkg/util"
	"Townhall/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// FailWithData used when the client needs details, e.g. rejected tag ids
func FailWithData(c *gin.Context, businessCode int, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    data,
	})
}

// Error maps err onto a business code
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, "invalid parameter")
		return
	}

	if errors.Is(err, io.EOF) {
		Fail(c, BadRequest, "empty body")
		return
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		Fail(c, BadRequest, "invalid parameter")
		return
	}

	var paramErr *util.ParamError
	if errors.As(err, &paramErr) {
		Fail(c, BadRequest, paramErr.Error())
		return
	}

	// gin decodes with encoding/json unless built with the go_json tag
	var unmarshalTypeError *json.UnmarshalTypeError
	var stdUnmarshalTypeError *stdjson.UnmarshalTypeError
	var syntaxError *stdjson.SyntaxError
	if errors.As(err, &unmarshalTypeError) || errors.As(err, &stdUnmarshalTypeError) || errors.As(err, &syntaxError) {
		Fail(c, BadRequest, "invalid json")
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) && len(validationErr.InvalidTags) > 0 {
		FailWithData(c, BadRequest, err.Error(), gin.H{"invalidTags": validationErr.InvalidTags})
		return
	}

	code, ok := service.CodeOf(err)
	if !ok {
		code = InternalServerError
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
	}
	Fail(c, code, err.Error())
}
