package wireproto

// WriteProtocolErrorKind writes the u32 variant discriminant followed by
// that variant's fields, in declaration order.
func (e *Encoder) WriteProtocolErrorKind(k ProtocolErrorKind) {
	e.WriteU32(k.wireTag())
	switch v := k.(type) {
	case OtherError:
		e.WriteString(v.Details)
	case GeneratorNotFoundError:
		e.WriteString(v.GeneratorName)
		e.WriteU32(v.RequestID)
	case GenerationError:
		e.WriteString(v.GeneratorName)
		e.WriteU32(v.RequestID)
		e.WriteString(v.Details)
	case FactoryError:
		e.WriteString(v.GeneratorName)
		e.WriteU32(v.RequestID)
		e.WriteString(v.Details)
	case TerminatedError:
		e.WriteString(v.Details)
	}
}

// ReadProtocolErrorKind reads the discriminant-tagged variant WriteProtocolErrorKind
// produces.
func (d *Decoder) ReadProtocolErrorKind() (ProtocolErrorKind, error) {
	tag, err := d.ReadU32()
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0:
		details, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return OtherError{Details: details}, nil
	case 1:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		id, err := d.ReadU32()
		if err != nil {
			return nil, err
		}
		return GeneratorNotFoundError{GeneratorName: name, RequestID: id}, nil
	case 2:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		id, err := d.ReadU32()
		if err != nil {
			return nil, err
		}
		details, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return GenerationError{GeneratorName: name, RequestID: id, Details: details}, nil
	case 3:
		name, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		id, err := d.ReadU32()
		if err != nil {
			return nil, err
		}
		details, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return FactoryError{GeneratorName: name, RequestID: id, Details: details}, nil
	case 4:
		details, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		return TerminatedError{Details: details}, nil
	default:
		return nil, ErrUnknownVariant
	}
}

// GentleError wraps a kind as a non-fatal protocol error: the connection
// stays open after the peer receives it.
func GentleError(kind ProtocolErrorKind) ProtocolErrorPacket {
	return ProtocolErrorPacket{Kind: kind, Fatal: false}
}

// FatalError wraps a kind as a fatal protocol error: the sender closes the
// connection immediately after flushing it.
func FatalError(kind ProtocolErrorKind) ProtocolErrorPacket {
	return ProtocolErrorPacket{Kind: kind, Fatal: true}
}
