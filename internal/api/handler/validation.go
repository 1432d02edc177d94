package handler

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/Kot-Pawel/squashLeague/internal/timeslot"
)

// RegisterValidators 在 gin 的校验引擎上注册自定义 binding 标签：
//
//	yyyymmdd   规范日期 "YYYY-MM-DD"
//	timerange  时间段 "HH:mm-HH:mm"，开始早于结束
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("binding 校验引擎不是 validator/v10")
	}
	if err := v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
		return timeslot.ValidDate(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("timerange", func(fl validator.FieldLevel) bool {
		_, err := timeslot.Parse(fl.Field().String())
		return err == nil
	})
}
