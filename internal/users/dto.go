package users

// UpdateProfileInput carries the mutable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	FirstName   *string `json:"firstName" validate:"omitempty,min=1,max=80"`
	LastName    *string `json:"lastName" validate:"omitempty,min=1,max=80"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	CompanyName *string `json:"companyName" validate:"omitempty,max=120"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatarUrl" validate:"omitempty,url"`
	City        *string `json:"city" validate:"omitempty,max=120"`
}

// DeviceTokenInput registers the caller's push token. An empty token clears it.
type DeviceTokenInput struct {
	Token string `json:"token" validate:"max=4096"`
}
