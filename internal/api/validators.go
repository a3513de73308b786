package api

import (
	"fmt"
	"sync"

	"MemeArena/internal/model"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 向 gin 的校验引擎注册自定义 tag：reaction_type、battle_status
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("reaction_type", func(fl validator.FieldLevel) bool {
			return model.IsValidReactionType(fl.Field().String())
		}); err != nil {
			return
		}
		err = v.RegisterValidation("battle_status", func(fl validator.FieldLevel) bool {
			return model.IsValidBattleStatus(fl.Field().String())
		})
	})
	return err
}
