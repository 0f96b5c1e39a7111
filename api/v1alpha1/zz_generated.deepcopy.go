//go:build !ignore_autogenerated

/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretKeyRef) DeepCopyInto(out *SecretKeyRef) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretKeyRef.
func (in *SecretKeyRef) DeepCopy() *SecretKeyRef {
	if in == nil {
		return nil
	}
	out := new(SecretKeyRef)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SourceRefSpec) DeepCopyInto(out *SourceRefSpec) {
	*out = *in
	if in.GitCredentialsRef != nil {
		out.GitCredentialsRef = new(SecretKeyRef)
		*out.GitCredentialsRef = *in.GitCredentialsRef
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SourceRefSpec.
func (in *SourceRefSpec) DeepCopy() *SourceRefSpec {
	if in == nil {
		return nil
	}
	out := new(SourceRefSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretsSpec) DeepCopyInto(out *SecretsSpec) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretsSpec.
func (in *SecretsSpec) DeepCopy() *SecretsSpec {
	if in == nil {
		return nil
	}
	out := new(SecretsSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *ConfigsSpec) DeepCopyInto(out *ConfigsSpec) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new ConfigsSpec.
func (in *ConfigsSpec) DeepCopy() *ConfigsSpec {
	if in == nil {
		return nil
	}
	out := new(ConfigsSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *ProviderAuthSpec) DeepCopyInto(out *ProviderAuthSpec) {
	*out = *in
	if in.SecretRef != nil {
		out.SecretRef = new(SecretKeyRef)
		*out.SecretRef = *in.SecretRef
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new ProviderAuthSpec.
func (in *ProviderAuthSpec) DeepCopy() *ProviderAuthSpec {
	if in == nil {
		return nil
	}
	out := new(ProviderAuthSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *GCPProviderSpec) DeepCopyInto(out *GCPProviderSpec) {
	*out = *in
	if in.Auth != nil {
		out.Auth = new(ProviderAuthSpec)
		in.Auth.DeepCopyInto(out.Auth)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new GCPProviderSpec.
func (in *GCPProviderSpec) DeepCopy() *GCPProviderSpec {
	if in == nil {
		return nil
	}
	out := new(GCPProviderSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *AWSProviderSpec) DeepCopyInto(out *AWSProviderSpec) {
	*out = *in
	if in.Auth != nil {
		out.Auth = new(ProviderAuthSpec)
		in.Auth.DeepCopyInto(out.Auth)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new AWSProviderSpec.
func (in *AWSProviderSpec) DeepCopy() *AWSProviderSpec {
	if in == nil {
		return nil
	}
	out := new(AWSProviderSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *AzureProviderSpec) DeepCopyInto(out *AzureProviderSpec) {
	*out = *in
	if in.Auth != nil {
		out.Auth = new(ProviderAuthSpec)
		in.Auth.DeepCopyInto(out.Auth)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new AzureProviderSpec.
func (in *AzureProviderSpec) DeepCopy() *AzureProviderSpec {
	if in == nil {
		return nil
	}
	out := new(AzureProviderSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *ProviderSpec) DeepCopyInto(out *ProviderSpec) {
	*out = *in
	if in.GCP != nil {
		out.GCP = new(GCPProviderSpec)
		in.GCP.DeepCopyInto(out.GCP)
	}
	if in.AWS != nil {
		out.AWS = new(AWSProviderSpec)
		in.AWS.DeepCopyInto(out.AWS)
	}
	if in.Azure != nil {
		out.Azure = new(AzureProviderSpec)
		in.Azure.DeepCopyInto(out.Azure)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new ProviderSpec.
func (in *ProviderSpec) DeepCopy() *ProviderSpec {
	if in == nil {
		return nil
	}
	out := new(ProviderSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *FluxCDNotificationSpec) DeepCopyInto(out *FluxCDNotificationSpec) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new FluxCDNotificationSpec.
func (in *FluxCDNotificationSpec) DeepCopy() *FluxCDNotificationSpec {
	if in == nil {
		return nil
	}
	out := new(FluxCDNotificationSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *ArgoCDSubscription) DeepCopyInto(out *ArgoCDSubscription) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new ArgoCDSubscription.
func (in *ArgoCDSubscription) DeepCopy() *ArgoCDSubscription {
	if in == nil {
		return nil
	}
	out := new(ArgoCDSubscription)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *ArgoCDNotificationSpec) DeepCopyInto(out *ArgoCDNotificationSpec) {
	*out = *in
	if in.Subscriptions != nil {
		in, out := &in.Subscriptions, &out.Subscriptions
		*out = make([]ArgoCDSubscription, len(*in))
		copy(*out, *in)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new ArgoCDNotificationSpec.
func (in *ArgoCDNotificationSpec) DeepCopy() *ArgoCDNotificationSpec {
	if in == nil {
		return nil
	}
	out := new(ArgoCDNotificationSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *NotificationsSpec) DeepCopyInto(out *NotificationsSpec) {
	*out = *in
	if in.FluxCD != nil {
		out.FluxCD = new(FluxCDNotificationSpec)
		*out.FluxCD = *in.FluxCD
	}
	if in.ArgoCD != nil {
		out.ArgoCD = new(ArgoCDNotificationSpec)
		in.ArgoCD.DeepCopyInto(out.ArgoCD)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new NotificationsSpec.
func (in *NotificationsSpec) DeepCopy() *NotificationsSpec {
	if in == nil {
		return nil
	}
	out := new(NotificationsSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretManagerConfigSpec) DeepCopyInto(out *SecretManagerConfigSpec) {
	*out = *in
	in.SourceRef.DeepCopyInto(&out.SourceRef)
	out.Secrets = in.Secrets
	out.Configs = in.Configs
	in.Provider.DeepCopyInto(&out.Provider)
	if in.Notifications != nil {
		out.Notifications = new(NotificationsSpec)
		in.Notifications.DeepCopyInto(out.Notifications)
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretManagerConfigSpec.
func (in *SecretManagerConfigSpec) DeepCopy() *SecretManagerConfigSpec {
	if in == nil {
		return nil
	}
	out := new(SecretManagerConfigSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SyncEntryStatus) DeepCopyInto(out *SyncEntryStatus) {
	*out = *in
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SyncEntryStatus.
func (in *SyncEntryStatus) DeepCopy() *SyncEntryStatus {
	if in == nil {
		return nil
	}
	out := new(SyncEntryStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretManagerConfigStatus) DeepCopyInto(out *SecretManagerConfigStatus) {
	*out = *in
	if in.LastReconcileTime != nil {
		in, out := &in.LastReconcileTime, &out.LastReconcileTime
		*out = (*in).DeepCopy()
	}
	if in.NextReconcileTime != nil {
		in, out := &in.NextReconcileTime, &out.NextReconcileTime
		*out = (*in).DeepCopy()
	}
	if in.SyncedSecrets != nil {
		in, out := &in.SyncedSecrets, &out.SyncedSecrets
		*out = make(map[string]SyncEntryStatus, len(*in))
		for key, val := range *in {
			(*out)[key] = val
		}
	}
	if in.SyncedProperties != nil {
		in, out := &in.SyncedProperties, &out.SyncedProperties
		*out = make(map[string]SyncEntryStatus, len(*in))
		for key, val := range *in {
			(*out)[key] = val
		}
	}
	if in.Conditions != nil {
		in, out := &in.Conditions, &out.Conditions
		*out = make([]metav1.Condition, len(*in))
		for i := range *in {
			(*in)[i].DeepCopyInto(&(*out)[i])
		}
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretManagerConfigStatus.
func (in *SecretManagerConfigStatus) DeepCopy() *SecretManagerConfigStatus {
	if in == nil {
		return nil
	}
	out := new(SecretManagerConfigStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretManagerConfig) DeepCopyInto(out *SecretManagerConfig) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretManagerConfig.
func (in *SecretManagerConfig) DeepCopy() *SecretManagerConfig {
	if in == nil {
		return nil
	}
	out := new(SecretManagerConfig)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject is a deepcopy function, copying the receiver, creating a new runtime.Object.
func (in *SecretManagerConfig) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto is a deepcopy function, copying the receiver, writing into out. in must be non-nil.
func (in *SecretManagerConfigList) DeepCopyInto(out *SecretManagerConfigList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		in, out := &in.Items, &out.Items
		*out = make([]SecretManagerConfig, len(*in))
		for i := range *in {
			(*in)[i].DeepCopyInto(&(*out)[i])
		}
	}
}

// DeepCopy is a deepcopy function, copying the receiver, creating a new SecretManagerConfigList.
func (in *SecretManagerConfigList) DeepCopy() *SecretManagerConfigList {
	if in == nil {
		return nil
	}
	out := new(SecretManagerConfigList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject is a deepcopy function, copying the receiver, creating a new runtime.Object.
func (in *SecretManagerConfigList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
