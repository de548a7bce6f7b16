package service

import "github.com/go-playground/validator/v10"

// validate is safe for concurrent use and caches parsed tags.
var validate = validator.New()
