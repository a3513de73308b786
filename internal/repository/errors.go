package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound 记录不存在，service 以 errors.Is 判断
var ErrNotFound = errors.New("record not found")

// translate 将 gorm 的未找到错误统一为 ErrNotFound，其余原样返回
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
