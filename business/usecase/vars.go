package usecase

type configHandler interface {
	GetPath() string
	AddObserver(func(interface{})) error
}

type dispatcher interface {
	Post(fn func()) error
}
