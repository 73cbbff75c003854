package model

type RegisterRequest struct {
	Username             string `json:"nombre_usuario"`
	Email                string `json:"email"`
	Password             string `json:"contrasena"`
	PasswordConfirmation string `json:"contrasena_confirmation"`
	Role                 string `json:"rol_usuario"`
	PatientID            *int64 `json:"paciente_id"`
	DoctorID             *int64 `json:"medico_id"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"contrasena"`
}
