package domain

import "errors"

// 领域校验错误
var (
	ErrNameRequired         = errors.New("contact name is required")
	ErrMainHasParent        = errors.New("main contact must not have a parent")
	ErrRelatedWithoutParent = errors.New("related contact requires parent_contact_id")
)
