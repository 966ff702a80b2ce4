package state

import "github.com/rotisserie/eris"

var (
	ErrEntityDoesNotExist       = eris.New("entity does not exist")
	ErrComponentAlreadyOnEntity = eris.New("component already on entity")
	ErrComponentNotOnEntity     = eris.New("component not on entity")
	ErrComponentMismatch        = eris.New("component value does not match component type")
)
