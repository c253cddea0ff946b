package model

import (
	"reflect"
	"testing"
)

func TestRemovableSet(t *testing.T) {
	devs := []Device{
		{ID: `C:\`, Opts: []string{"rw", "fixed"}},
		{ID: `E:\`, Opts: []string{"rw", "Removable"}},
		{ID: "/dev/sdb1", Opts: []string{"rw", "nosuid", OptRemovable, OptUSB}},
		{ID: "", Opts: []string{OptRemovable}},
		{ID: "/dev/sda1", Opts: nil},
	}
	got := RemovableSet(devs).Sorted()
	want := []string{"/dev/sdb1", `E:\`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RemovableSet() = %v, want %v", got, want)
	}
}

func TestDeviceSetMinus(t *testing.T) {
	a := DeviceSet{"x": {}, "y": {}, "z": {}}
	b := DeviceSet{"y": {}, "w": {}}

	if got, want := a.Minus(b), []string{"x", "z"}; !reflect.DeepEqual(got, want) {
		t.Errorf("a.Minus(b) = %v, want %v", got, want)
	}
	if got, want := b.Minus(a), []string{"w"}; !reflect.DeepEqual(got, want) {
		t.Errorf("b.Minus(a) = %v, want %v", got, want)
	}
	if got := a.Minus(a); len(got) != 0 {
		t.Errorf("a.Minus(a) = %v, want empty", got)
	}
}
